package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	bookingapp "github.com/staydesk/backend/internal/application/booking"
	exportapp "github.com/staydesk/backend/internal/application/export"
	identityapp "github.com/staydesk/backend/internal/application/identity"
	notificationapp "github.com/staydesk/backend/internal/application/notification"
	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/notification"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/capability"
)

type mockReservationService struct{ mock.Mock }

func (m *mockReservationService) Create(ctx context.Context, req bookingapp.CreateReservationRequest) (*booking.Reservation, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*booking.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationService) Get(ctx context.Context, id string) (*booking.Reservation, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*booking.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationService) List(ctx context.Context, f booking.ReservationFilter) ([]booking.Reservation, error) {
	args := m.Called(ctx, f)
	r, _ := args.Get(0).([]booking.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationService) Update(ctx context.Context, id string, req bookingapp.UpdateReservationRequest) (*booking.Reservation, error) {
	args := m.Called(ctx, id, req)
	r, _ := args.Get(0).(*booking.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationService) ChangeStatus(ctx context.Context, id string, s booking.Status) (*booking.Reservation, error) {
	args := m.Called(ctx, id, s)
	r, _ := args.Get(0).(*booking.Reservation)
	return r, args.Error(1)
}

func (m *mockReservationService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReservationService) Ledger(ctx context.Context, id string) (*booking.Ledger, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*booking.Ledger)
	return l, args.Error(1)
}

func TestReservationHandler(t *testing.T) {
	setup := func() (*mockReservationService, http.Handler) {
		svc := new(mockReservationService)
		h := NewReservationHandler(svc)
		router := newTestRouter()
		router.POST("/reservations", h.Create)
		router.GET("/reservations", h.List)
		router.GET("/reservations/:id", h.Get)
		router.PATCH("/reservations/:id/status", h.ChangeStatus)
		router.DELETE("/reservations/:id", h.Delete)
		router.GET("/reservations/:id/ledger", h.Ledger)
		return svc, router
	}
	propertyID := uuid.New()

	t.Run("create", func(t *testing.T) {
		svc, router := setup()
		svc.On("Create", mock.Anything, mock.MatchedBy(func(req bookingapp.CreateReservationRequest) bool {
			return req.Name == "Asha Rao" && req.TotalAmount.Equal(decimal.NewFromInt(9000))
		})).Return(&booking.Reservation{BookingID: "HST25ABCDEF", GuestName: "Asha Rao"}, nil)

		w := doJSON(router, http.MethodPost, "/reservations", map[string]any{
			"guest_name":   "Asha Rao",
			"adults":       2,
			"property_id":  propertyID,
			"check_in":     "2025-03-01",
			"check_out":    "2025-03-04",
			"total_amount": "9000",
		})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "HST25ABCDEF")
	})

	t.Run("create validation", func(t *testing.T) {
		svc, router := setup()
		w := doJSON(router, http.MethodPost, "/reservations", map[string]any{"adults": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"guest_name"`)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid dates from the service", func(t *testing.T) {
		svc, router := setup()
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrInvalidDates)
		w := doJSON(router, http.MethodPost, "/reservations", map[string]any{
			"guest_name": "Asha", "adults": 1, "property_id": propertyID,
			"check_in": "2025-03-04", "check_out": "2025-03-01",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_INVALID_DATES", decode(t, w).Error.Code)
	})

	t.Run("list passes filters", func(t *testing.T) {
		svc, router := setup()
		svc.On("List", mock.Anything, mock.MatchedBy(func(f booking.ReservationFilter) bool {
			return f.Status == booking.StatusConfirmed &&
				f.PropertyID == propertyID &&
				f.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.Query == "asha"
		})).Return([]booking.Reservation{{BookingID: "HST25ABCDEF"}}, nil)

		w := doJSON(router, http.MethodGet, "/reservations?status=confirmed&property_id="+propertyID.String()+"&from=2025-03-01&q=asha", nil)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list []booking.Reservation
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
		assert.Len(t, list, 1)
	})

	t.Run("list rejects unknown status", func(t *testing.T) {
		_, router := setup()
		w := doJSON(router, http.MethodGet, "/reservations?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list rejects inverted range", func(t *testing.T) {
		_, router := setup()
		w := doJSON(router, http.MethodGet, "/reservations?from=2025-03-05&to=2025-03-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get not found", func(t *testing.T) {
		svc, router := setup()
		svc.On("Get", mock.Anything, "HST25ZZZZZZ").Return(nil, shared.ErrNotFound)
		w := doJSON(router, http.MethodGet, "/reservations/HST25ZZZZZZ", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc, router := setup()
		svc.On("ChangeStatus", mock.Anything, "HST25ABCDEF", booking.StatusCheckedOut).Return(nil, shared.ErrTransition)
		w := doJSON(router, http.MethodPatch, "/reservations/HST25ABCDEF/status", map[string]string{"status": "checked-out"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc, router := setup()
		svc.On("Delete", mock.Anything, "HST25ABCDEF").Return(nil)
		assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/reservations/HST25ABCDEF", nil).Code)
	})

	t.Run("ledger", func(t *testing.T) {
		svc, router := setup()
		svc.On("Ledger", mock.Anything, "HST25ABCDEF").Return(&booking.Ledger{
			BookingID: "HST25ABCDEF", State: booking.PaymentStatePartial,
		}, nil)
		w := doJSON(router, http.MethodGet, "/reservations/HST25ABCDEF/ledger", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"partial"`)
	})
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) Record(ctx context.Context, req bookingapp.RecordPaymentRequest) (*booking.Payment, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*booking.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentService) List(ctx context.Context, bookingID string, f shared.Filter) ([]booking.Payment, error) {
	args := m.Called(ctx, bookingID, f)
	p, _ := args.Get(0).([]booking.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestPaymentHandler(t *testing.T) {
	setup := func() (*mockPaymentService, http.Handler) {
		svc := new(mockPaymentService)
		h := NewPaymentHandler(svc)
		router := newTestRouter()
		router.POST("/payments", h.Record)
		router.GET("/payments", h.List)
		router.DELETE("/payments/:id", h.Delete)
		return svc, router
	}

	t.Run("overpayment is 422", func(t *testing.T) {
		svc, router := setup()
		svc.On("Record", mock.Anything, mock.Anything).Return(nil, shared.ErrOverpayment)
		w := doJSON(router, http.MethodPost, "/payments", map[string]any{
			"booking_id": "HST25ABCDEF", "amount": "99999", "method": "upi",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ERR_OVERPAYMENT", decode(t, w).Error.Code)
	})

	t.Run("unknown method is rejected before the service", func(t *testing.T) {
		svc, router := setup()
		w := doJSON(router, http.MethodPost, "/payments", map[string]any{
			"booking_id": "HST25ABCDEF", "amount": "100", "method": "cheque",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("list by booking", func(t *testing.T) {
		svc, router := setup()
		svc.On("List", mock.Anything, "HST25ABCDEF", shared.Filter{}).Return([]booking.Payment{{BookingID: "HST25ABCDEF"}}, nil)
		w := doJSON(router, http.MethodGet, "/payments?booking_id=HST25ABCDEF", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete with bad id", func(t *testing.T) {
		_, router := setup()
		assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodDelete, "/payments/123", nil).Code)
	})
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, in identityapp.LoginInput) (*identityapp.LoginResult, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*identityapp.LoginResult)
	return r, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, in identityapp.LogoutInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, id uuid.UUID) (*identityapp.UserInfo, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*identityapp.UserInfo)
	return r, args.Error(1)
}

func TestAuthHandler(t *testing.T) {
	setup := func() (*mockAuthService, http.Handler) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc)
		router := newTestRouter()
		router.POST("/auth/login", h.Login)
		router.POST("/auth/logout", h.Logout)
		router.GET("/auth/me", h.Me)
		return svc, router
	}

	t.Run("login", func(t *testing.T) {
		svc, router := setup()
		svc.On("Login", mock.Anything, identityapp.LoginInput{Email: "staff@example.com", Password: "pw"}).
			Return(&identityapp.LoginResult{Token: "tok", TokenType: "Bearer"}, nil)
		w := doJSON(router, http.MethodPost, "/auth/login", map[string]string{"email": "staff@example.com", "password": "pw"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"token":"tok"`)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc, router := setup()
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, identityapp.ErrInvalidCredentials)
		w := doJSON(router, http.MethodPost, "/auth/login", map[string]string{"email": "staff@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_INVALID_CREDENTIALS", decode(t, w).Error.Code)
	})

	t.Run("logout revokes the jti", func(t *testing.T) {
		svc, router := setup()
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identityapp.LogoutInput) bool {
			return in.TokenJTI == "jti-1" && in.UserID == testUserID && !in.ExpiresAt.IsZero()
		})).Return(nil)
		assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodPost, "/auth/logout", nil).Code)
		svc.AssertExpectations(t)
	})

	t.Run("me", func(t *testing.T) {
		svc, router := setup()
		svc.On("GetCurrentUser", mock.Anything, testUserID).Return(&identityapp.UserInfo{ID: testUserID, Email: "staff@example.com"}, nil)
		w := doJSON(router, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "staff@example.com")
	})
}

type mockPushService struct{ mock.Mock }

func (m *mockPushService) Subscribe(ctx context.Context, userID uuid.UUID, req notificationapp.SubscribeRequest) (*notification.PushSubscription, error) {
	args := m.Called(ctx, userID, req)
	s, _ := args.Get(0).(*notification.PushSubscription)
	return s, args.Error(1)
}

func (m *mockPushService) Unsubscribe(ctx context.Context, req notificationapp.UnsubscribeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockPushService) Relay(ctx context.Context, req notificationapp.RelayRequest) (*notification.RelayReport, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*notification.RelayReport)
	return r, args.Error(1)
}

func TestPushHandler(t *testing.T) {
	setup := func() (*mockPushService, http.Handler) {
		svc := new(mockPushService)
		h := NewPushHandler(svc)
		router := newTestRouter()
		router.POST("/push/subscriptions", h.Subscribe)
		router.DELETE("/push/subscriptions", h.Unsubscribe)
		router.POST("/push/relay", h.Relay)
		return svc, router
	}

	t.Run("subscribe binds the caller", func(t *testing.T) {
		svc, router := setup()
		svc.On("Subscribe", mock.Anything, testUserID, mock.MatchedBy(func(req notificationapp.SubscribeRequest) bool {
			return req.Keys.P256dh == "key" && req.Keys.Auth == "secret"
		})).Return(&notification.PushSubscription{Endpoint: "https://push.example/abc"}, nil)

		w := doJSON(router, http.MethodPost, "/push/subscriptions", map[string]any{
			"endpoint": "https://push.example/abc",
			"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
		})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("unsubscribe", func(t *testing.T) {
		svc, router := setup()
		svc.On("Unsubscribe", mock.Anything, notificationapp.UnsubscribeRequest{Endpoint: "https://push.example/abc"}).Return(nil)
		w := doJSON(router, http.MethodDelete, "/push/subscriptions", map[string]string{"endpoint": "https://push.example/abc"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("relay returns the report", func(t *testing.T) {
		svc, router := setup()
		svc.On("Relay", mock.Anything, mock.MatchedBy(func(req notificationapp.RelayRequest) bool {
			return req.NotificationType == notification.TypeNewReservation && len(req.Filters.Roles) == 1
		})).Return(&notification.RelayReport{Sent: 2, Failed: 1}, nil)

		w := doJSON(router, http.MethodPost, "/push/relay", map[string]any{
			"filters":          map[string]any{"roles": []string{"admin"}},
			"notificationType": "new_reservation",
			"payload":          map[string]string{"title": "New booking"},
		})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"sent":2`)
	})
}

type mockExporter struct{ mock.Mock }

func (m *mockExporter) Export(ctx context.Context, req exportapp.Request) (*exportapp.Result, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*exportapp.Result)
	return r, args.Error(1)
}

func TestExportHandler(t *testing.T) {
	setup := func() (*mockExporter, http.Handler) {
		exp := new(mockExporter)
		router := newTestRouter()
		router.GET("/exports/reservations", NewExportHandler(exp).Reservations)
		return exp, router
	}

	t.Run("streams the file", func(t *testing.T) {
		exp, router := setup()
		exp.On("Export", mock.Anything, mock.MatchedBy(func(req exportapp.Request) bool {
			return req.Format == "csv" && req.Filter.Status == booking.StatusConfirmed && !req.Upload
		})).Return(&exportapp.Result{
			FileName: "reservations.csv", ContentType: "text/csv", Rows: 1, Data: []byte("Booking ID\nHST25ABCDEF\n"),
		}, nil)

		w := doJSON(router, http.MethodGet, "/exports/reservations?format=csv&status=confirmed", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "reservations.csv")
		assert.Equal(t, "1", w.Header().Get("X-Export-Rows"))
		assert.Contains(t, w.Body.String(), "HST25ABCDEF")
	})

	t.Run("uploaded returns a link", func(t *testing.T) {
		exp, router := setup()
		exp.On("Export", mock.Anything, mock.Anything).Return(&exportapp.Result{
			FileName: "reservations.xlsx", URL: "https://s3.example/exports/reservations.xlsx",
		}, nil)
		w := doJSON(router, http.MethodGet, "/exports/reservations?format=xlsx&upload=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://s3.example/exports/reservations.xlsx")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, router := setup()
		assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/exports/reservations?format=pdf", nil).Code)
	})
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewSystemHandler("staydesk-server", "test", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		router := newTestRouter()
		router.GET("/health", h.Health)
		w := doJSON(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewSystemHandler("staydesk-server", "test", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		router := newTestRouter()
		router.GET("/health", h.Health)
		w := doJSON(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
	t.Run("lists capabilities without degrading", func(t *testing.T) {
		registry := capability.NewRegistry()
		require.NoError(t, registry.Register(capability.EventStream, stubStream{err: errors.New("broker down")}))
		require.NoError(t, registry.Register(capability.PushSender, struct{}{}))

		h := NewSystemHandler("staydesk-server", "test", map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		h.SetCapabilities(registry)
		router := newTestRouter()
		router.GET("/health", h.Health)
		w := doJSON(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Data.Status)
		assert.Equal(t, map[string]string{
			capability.EventStream: "broker down",
			capability.PushSender:  "registered",
		}, body.Data.Capabilities)
	})
}

type stubStream struct{ err error }

func (s stubStream) Healthy(context.Context) error { return s.err }
