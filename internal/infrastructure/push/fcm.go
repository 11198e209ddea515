// Package push delivers relay messages to browser push endpoints.
package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

// fcmEndpointPrefix is how Chrome-family browsers expose FCM registration tokens
const fcmEndpointPrefix = "https://fcm.googleapis.com/fcm/send/"

// messagingClient is the subset of *messaging.Client the sender uses
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers web push messages through Firebase Cloud Messaging
type FCMSender struct {
	client messagingClient
	logger *zap.Logger
}

// NewFCMSender initialises a Firebase app from the configured service account
func NewFCMSender(ctx context.Context, cfg config.PushConfig, logger *zap.Logger) (*FCMSender, error) {
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase: initialise app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: messaging client: %w", err)
	}
	return newFCMSender(client, logger), nil
}

func newFCMSender(client messagingClient, logger *zap.Logger) *FCMSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMSender{client: client, logger: logger}
}

// Send delivers one message and reports an HTTP-style status for the relay report
func (s *FCMSender) Send(ctx context.Context, msg notification.Message) (int, error) {
	token, ok := RegistrationToken(msg.Subscription.Endpoint)
	if !ok {
		return http.StatusBadRequest, fmt.Errorf("endpoint %q is not an FCM endpoint", msg.Subscription.Endpoint)
	}

	data := make(map[string]string, len(msg.Payload.Data)+2)
	for k, v := range msg.Payload.Data {
		data[k] = v
	}
	data["type"] = msg.Type
	if msg.Payload.URL != "" {
		data["url"] = msg.Payload.URL
	}

	webpush := &messaging.WebpushConfig{
		Headers: map[string]string{"Urgency": "high"},
		Notification: &messaging.WebpushNotification{
			Title: msg.Payload.Title,
			Body:  msg.Payload.Body,
			Tag:   msg.Type,
		},
	}
	if strings.HasPrefix(msg.Payload.URL, "https://") {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: msg.Payload.URL}
	}

	id, err := s.client.Send(ctx, &messaging.Message{
		Token:   token,
		Data:    data,
		Webpush: webpush,
	})
	switch {
	case err == nil:
		s.logger.Debug("push delivered", zap.String("message_id", id), zap.String("type", msg.Type))
		return http.StatusOK, nil
	case messaging.IsUnregistered(err):
		return http.StatusGone, fmt.Errorf("%w: %v", notification.ErrSubscriptionGone, err)
	case messaging.IsInvalidArgument(err):
		return http.StatusBadRequest, err
	case messaging.IsQuotaExceeded(err):
		return http.StatusTooManyRequests, err
	default:
		return http.StatusBadGateway, err
	}
}

// RegistrationToken extracts the FCM token from a push endpoint URL
func RegistrationToken(endpoint string) (string, bool) {
	if !strings.HasPrefix(endpoint, fcmEndpointPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(endpoint, fcmEndpointPrefix)
	return token, token != ""
}

var _ notification.Sender = (*FCMSender)(nil)
