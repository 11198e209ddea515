package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/capability"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, s *notification.PushSubscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return m.Called(ctx, endpoint).Error(0)
}

func (m *MockSubscriptionRepository) FindMatching(ctx context.Context, filter notification.SubscriptionFilter) ([]notification.PushSubscription, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.PushSubscription), args.Error(1)
}

// fakeSender fails endpoints listed in failures and tracks peak concurrency
type fakeSender struct {
	failures map[string]error
	delay    time.Duration

	mu       sync.Mutex
	messages []notification.Message
	active   atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSender) Send(_ context.Context, msg notification.Message) (int, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()

	if err, ok := f.failures[msg.Subscription.Endpoint]; ok {
		if errors.Is(err, notification.ErrSubscriptionGone) {
			return http.StatusGone, err
		}
		return http.StatusInternalServerError, err
	}
	return http.StatusCreated, nil
}

type recorder struct {
	delivered, failed, pruned atomic.Int32
}

func (r *recorder) PushDelivered(success bool) {
	if success {
		r.delivered.Add(1)
	} else {
		r.failed.Add(1)
	}
}

func (r *recorder) PushPruned() { r.pruned.Add(1) }

func subscriptions(n int) []notification.PushSubscription {
	out := make([]notification.PushSubscription, n)
	for i := range out {
		out[i] = notification.PushSubscription{
			ID:       uuid.New(),
			UserID:   uuid.New(),
			Endpoint: fmt.Sprintf("https://push.example.com/sub/%d", i),
			P256dh:   "key",
			Auth:     "auth",
		}
	}
	return out
}

func newRelay(t *testing.T, sender notification.Sender, concurrency int) (*RelayService, *MockSubscriptionRepository, *recorder) {
	t.Helper()
	repo := new(MockSubscriptionRepository)
	registry := capability.NewRegistry()
	if sender != nil {
		require.NoError(t, registry.Register(capability.PushSender, sender))
	}
	rec := &recorder{}
	svc := NewRelayService(repo, registry, config.PushConfig{Concurrency: concurrency}, nil)
	svc.SetRecorder(rec)
	return svc, repo, rec
}

func TestRelayService_Relay(t *testing.T) {
	ctx := context.Background()
	payload := notification.Payload{Title: "Check-ins today", Body: "3 guests arriving"}

	t.Run("fans out and reports per endpoint", func(t *testing.T) {
		subs := subscriptions(5)
		sender := &fakeSender{failures: map[string]error{
			subs[1].Endpoint: errors.New("upstream 500"),
		}}
		svc, repo, rec := newRelay(t, sender, 2)
		filter := notification.SubscriptionFilter{Roles: []identity.Role{identity.RoleStaff}}
		repo.On("FindMatching", ctx, filter).Return(subs, nil)

		report, err := svc.Relay(ctx, RelayRequest{Filters: filter, Payload: payload})
		require.NoError(t, err)
		assert.Equal(t, 4, report.Sent)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, report.Results, 5)
		assert.Equal(t, subs[1].Endpoint, report.Results[1].Endpoint)
		assert.False(t, report.Results[1].Success)
		assert.Equal(t, "upstream 500", report.Results[1].Error)
		assert.Equal(t, http.StatusCreated, report.Results[0].StatusCode)
		assert.Equal(t, int32(4), rec.delivered.Load())
		assert.Equal(t, int32(1), rec.failed.Load())

		for _, msg := range sender.messages {
			assert.Equal(t, notification.TypeGeneric, msg.Type)
		}
		repo.AssertNotCalled(t, "DeleteByEndpoint", mock.Anything, mock.Anything)
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		sender := &fakeSender{delay: 20 * time.Millisecond}
		svc, repo, _ := newRelay(t, sender, 3)
		repo.On("FindMatching", ctx, mock.Anything).Return(subscriptions(12), nil)

		report, err := svc.Relay(ctx, RelayRequest{Payload: payload})
		require.NoError(t, err)
		assert.Equal(t, 12, report.Sent)
		assert.LessOrEqual(t, sender.peak.Load(), int32(3))
	})

	t.Run("prunes gone subscriptions", func(t *testing.T) {
		subs := subscriptions(3)
		sender := &fakeSender{failures: map[string]error{
			subs[2].Endpoint: fmt.Errorf("fcm: %w", notification.ErrSubscriptionGone),
		}}
		svc, repo, rec := newRelay(t, sender, 0)
		repo.On("FindMatching", ctx, mock.Anything).Return(subs, nil)
		repo.On("DeleteByEndpoint", ctx, subs[2].Endpoint).Return(nil)

		report, err := svc.Relay(ctx, RelayRequest{NotificationType: notification.TypeCheckInToday, Payload: payload})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Sent)
		assert.Equal(t, http.StatusGone, report.Results[2].StatusCode)
		assert.Equal(t, int32(1), rec.pruned.Load())
		repo.AssertExpectations(t)
	})

	t.Run("missing sender is a no-op", func(t *testing.T) {
		svc, repo, _ := newRelay(t, nil, 2)

		report, err := svc.Relay(ctx, RelayRequest{Payload: payload})
		require.NoError(t, err)
		assert.Zero(t, report.Sent)
		assert.Empty(t, report.Results)
		repo.AssertNotCalled(t, "FindMatching", mock.Anything, mock.Anything)
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		svc, _, _ := newRelay(t, &fakeSender{}, 2)
		_, err := svc.Relay(ctx, RelayRequest{})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, repo, _ := newRelay(t, &fakeSender{}, 2)
		repo.On("FindMatching", ctx, mock.Anything).Return(nil, errors.New("db down"))
		_, err := svc.Relay(ctx, RelayRequest{Payload: payload})
		assert.Error(t, err)
	})
}

func TestRelayService_Subscribe(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRelay(t, nil, 1)
	userID := uuid.New()

	req := SubscribeRequest{Endpoint: "https://fcm.googleapis.com/fcm/send/abc", UserAgent: "Firefox"}
	req.Keys.P256dh = "key"
	req.Keys.Auth = "auth"
	repo.On("Upsert", ctx, mock.MatchedBy(func(s *notification.PushSubscription) bool {
		return s.UserID == userID && s.Endpoint == req.Endpoint
	})).Return(nil)

	sub, err := svc.Subscribe(ctx, userID, req)
	require.NoError(t, err)
	assert.Equal(t, "Firefox", sub.UserAgent)

	_, err = svc.Subscribe(ctx, userID, SubscribeRequest{Endpoint: "http://insecure.example.com"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	repo.On("DeleteByEndpoint", ctx, req.Endpoint).Return(nil)
	require.NoError(t, svc.Unsubscribe(ctx, UnsubscribeRequest{Endpoint: " " + req.Endpoint + " "}))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, UnsubscribeRequest{}), shared.ErrValidation)
}

type MockRelayer struct {
	mock.Mock
}

func (m *MockRelayer) Relay(ctx context.Context, req RelayRequest) (*notification.RelayReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.RelayReport), args.Error(1)
}

func TestBookingNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("new reservation", func(t *testing.T) {
		relay := new(MockRelayer)
		n := NewBookingNotifier(relay, nil)
		r := &booking.Reservation{BookingID: "HST25ABCDEF", GuestName: "Asha Rao", TotalAmount: decimal.NewFromInt(9000)}
		relay.On("Relay", ctx, mock.MatchedBy(func(req RelayRequest) bool {
			return req.NotificationType == notification.TypeNewReservation &&
				req.Payload.Body == "Asha Rao · ₹9,000" &&
				req.Payload.Data["booking_id"] == "HST25ABCDEF" &&
				len(req.Filters.Roles) == 2
		})).Return(&notification.RelayReport{}, nil)

		require.NoError(t, n.Handle(ctx, booking.NewReservationCreatedEvent(r)))
		relay.AssertExpectations(t)
	})

	t.Run("relay errors are swallowed", func(t *testing.T) {
		relay := new(MockRelayer)
		n := NewBookingNotifier(relay, nil)
		p := &booking.Payment{ID: uuid.New(), BookingID: "HST25ABCDEF", Amount: decimal.NewFromInt(500), Method: booking.PaymentMethodUPI}
		relay.On("Relay", ctx, mock.Anything).Return(nil, errors.New("boom"))

		assert.NoError(t, n.Handle(ctx, booking.NewPaymentRecordedEvent(p)))
		req := relay.Calls[0].Arguments.Get(1).(RelayRequest)
		assert.Equal(t, notification.TypePaymentReceived, req.NotificationType)
		assert.Equal(t, "₹500 for HST25ABCDEF via upi", req.Payload.Body)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		relay := new(MockRelayer)
		n := NewBookingNotifier(relay, nil)
		r := &booking.Reservation{BookingID: "HST25ABCDEF"}
		assert.NoError(t, n.Handle(ctx, booking.NewReservationDeletedEvent(r)))
		relay.AssertNotCalled(t, "Relay", mock.Anything, mock.Anything)
	})
}
