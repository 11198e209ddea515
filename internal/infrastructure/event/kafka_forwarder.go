package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/shared"
)

// messageWriter is the subset of *kafka.Writer the forwarder needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaEnvelope is the record value written to the change topic
type kafkaEnvelope struct {
	shared.ChangeNotice
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	Payload       json.RawMessage `json:"payload"`
}

// KafkaForwarder is a wildcard event handler that copies domain events to a Kafka topic
type KafkaForwarder struct {
	writer messageWriter
	logger *zap.Logger

	mu      sync.Mutex
	lastErr error
}

// NewKafkaForwarder creates a forwarder writing to topic on brokers
func NewKafkaForwarder(brokers []string, topic string, logger *zap.Logger) *KafkaForwarder {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafkaForwarder(w, logger)
}

func newKafkaForwarder(w messageWriter, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{writer: w, logger: logger}
}

// Handle writes the event keyed by aggregate id, so one booking's events stay ordered
func (f *KafkaForwarder) Handle(ctx context.Context, ev shared.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	value, err := json.Marshal(kafkaEnvelope{
		ChangeNotice:  shared.NewChangeNotice(ev),
		EventID:       ev.EventID().String(),
		AggregateType: ev.AggregateType(),
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.AggregateID()),
		Value: value,
		Time:  ev.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType())},
		},
	}
	err = f.writer.WriteMessages(ctx, msg)
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", ev.EventType(), err)
	}
	f.logger.Debug("event forwarded to kafka",
		zap.String("event_type", ev.EventType()),
		zap.String("aggregate_id", ev.AggregateID()),
	)
	return nil
}

// EventTypes returns nil so the forwarder receives every event
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Healthy returns the error of the most recent write, nil after a success
func (f *KafkaForwarder) Healthy(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
