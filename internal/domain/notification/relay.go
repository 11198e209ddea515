package notification

import (
	"context"
	"errors"
)

// Notification types understood by the client service worker
const (
	TypeNewReservation  = "new_reservation"
	TypePaymentReceived = "payment_received"
	TypeCheckInToday    = "check_in_today"
	TypeGeneric         = "generic"
)

// Payload is the visible content of a push message
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	URL   string            `json:"url,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Message is a payload addressed to one subscription
type Message struct {
	Type         string
	Payload      Payload
	Subscription PushSubscription
}

// DeliveryResult is the outcome for one endpoint
type DeliveryResult struct {
	Endpoint   string `json:"endpoint"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// RelayReport aggregates a fan-out
type RelayReport struct {
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []DeliveryResult `json:"results"`
}

// ErrSubscriptionGone means the push service no longer knows the endpoint
// and the subscription should be pruned.
var ErrSubscriptionGone = errors.New("push subscription expired or unregistered")

// Sender delivers one message. Implementations return ErrSubscriptionGone
// (possibly wrapped) for dead endpoints and report the upstream status code.
type Sender interface {
	Send(ctx context.Context, msg Message) (statusCode int, err error)
}
