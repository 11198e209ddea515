package push

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/notification"
)

// LogSender logs messages instead of delivering them. Used when push is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and reports success
func (s *LogSender) Send(_ context.Context, msg notification.Message) (int, error) {
	s.logger.Info("push relay (dry run)",
		zap.String("type", msg.Type),
		zap.String("endpoint", msg.Subscription.Endpoint),
		zap.String("title", msg.Payload.Title),
	)
	return http.StatusAccepted, nil
}

var _ notification.Sender = (*LogSender)(nil)
