// Package notification holds push subscription management and the relay
// that fans a payload out to matching subscriptions.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/capability"
	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/telemetry"
)

const (
	defaultConcurrency = 8
	sendTimeout        = 10 * time.Second
)

// SubscribeRequest is the browser PushSubscription JSON plus a user agent
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
	UserAgent string `json:"user_agent"`
}

// UnsubscribeRequest removes a subscription by endpoint
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// RelayRequest addresses a payload to the subscriptions matching Filters
type RelayRequest struct {
	Filters          notification.SubscriptionFilter `json:"filters"`
	NotificationType string                          `json:"notificationType"`
	Payload          notification.Payload            `json:"payload"`
}

// DeliveryRecorder receives relay counters
type DeliveryRecorder interface {
	PushDelivered(success bool)
	PushPruned()
}

// RelayService manages subscriptions and relays push messages
type RelayService struct {
	repo        notification.SubscriptionRepository
	registry    *capability.Registry
	concurrency int
	recorder    DeliveryRecorder
	logger      *zap.Logger
}

// NewRelayService creates a RelayService. The sender is resolved from the
// registry on every relay so it can be swapped at startup.
func NewRelayService(
	repo notification.SubscriptionRepository,
	registry *capability.Registry,
	cfg config.PushConfig,
	logger *zap.Logger,
) *RelayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &RelayService{
		repo:        repo,
		registry:    registry,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SetRecorder sets the metrics sink for deliveries
func (s *RelayService) SetRecorder(recorder DeliveryRecorder) {
	s.recorder = recorder
}

// Subscribe stores a subscription for the user, replacing any previous
// registration of the same endpoint.
func (s *RelayService) Subscribe(ctx context.Context, userID uuid.UUID, req SubscribeRequest) (*notification.PushSubscription, error) {
	sub, err := notification.NewPushSubscription(userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.UserAgent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("save push subscription: %w", err)
	}
	s.logger.Info("Push subscription stored", zap.String("user_id", userID.String()))
	return sub, nil
}

// Unsubscribe deletes a subscription. Unknown endpoints are not an error.
func (s *RelayService) Unsubscribe(ctx context.Context, req UnsubscribeRequest) error {
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return shared.NewValidationError("endpoint is required")
	}
	return s.repo.DeleteByEndpoint(ctx, endpoint)
}

// Relay sends the payload to every matching subscription with bounded
// concurrency. Per-endpoint failures are reported, not returned. Endpoints
// the push service reports gone are deleted.
func (s *RelayService) Relay(ctx context.Context, req RelayRequest) (_ *notification.RelayReport, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "push", "relay")
	defer func() { telemetry.Finish(span, err) }()

	if strings.TrimSpace(req.Payload.Title) == "" && strings.TrimSpace(req.Payload.Body) == "" {
		return nil, shared.NewValidationError("payload needs a title or a body")
	}
	notificationType := req.NotificationType
	if notificationType == "" {
		notificationType = notification.TypeGeneric
	}

	report := &notification.RelayReport{Results: []notification.DeliveryResult{}}
	sender, ok := capability.Lookup[notification.Sender](s.registry, capability.PushSender)
	if !ok {
		s.logger.Warn("Push relay requested but no sender is registered")
		return report, nil
	}

	subs, err := s.repo.FindMatching(ctx, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("find push subscriptions: %w", err)
	}
	span.SetAttributes(telemetry.AttrRecipients.Int(len(subs)))
	if len(subs) == 0 {
		return report, nil
	}

	results := make([]notification.DeliveryResult, len(subs))
	gone := make([]bool, len(subs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range subs {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			status, err := sender.Send(sendCtx, notification.Message{
				Type:         notificationType,
				Payload:      req.Payload,
				Subscription: subs[i],
			})
			results[i] = notification.DeliveryResult{
				Endpoint:   subs[i].Endpoint,
				Success:    err == nil,
				StatusCode: status,
			}
			if err != nil {
				results[i].Error = err.Error()
				gone[i] = errors.Is(err, notification.ErrSubscriptionGone)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.Success {
			report.Sent++
		} else {
			report.Failed++
		}
		if s.recorder != nil {
			s.recorder.PushDelivered(r.Success)
		}
		if gone[i] {
			s.prune(ctx, r.Endpoint)
		}
	}
	report.Results = results

	s.logger.Info("Push relay finished",
		zap.String("type", notificationType),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *RelayService) prune(ctx context.Context, endpoint string) {
	if err := s.repo.DeleteByEndpoint(ctx, endpoint); err != nil {
		s.logger.Error("Failed to prune push subscription", zap.String("endpoint", endpoint), zap.Error(err))
		return
	}
	if s.recorder != nil {
		s.recorder.PushPruned()
	}
	s.logger.Info("Pruned expired push subscription", zap.String("endpoint", endpoint))
}
