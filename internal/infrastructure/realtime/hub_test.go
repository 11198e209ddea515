package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/shared"
)

func startFeed(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeHTTP(w, r, "user-1")
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, url := startFeed(t)
	a := dial(t, url)
	b := dial(t, url)

	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	notice := shared.ChangeNotice{Type: "ReservationCreated", Entity: "reservations", Key: "HST25ABCDEF", At: time.Now().UTC()}
	hub.Broadcast(context.Background(), notice)

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got shared.ChangeNotice
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "HST25ABCDEF", got.Key)
		assert.Equal(t, "reservations", got.Entity)
	}
}

func TestHub_DetachesClosedClients(t *testing.T) {
	hub, url := startFeed(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type fakeEvent struct {
	shared.BaseDomainEvent
}

func TestChangeBroadcaster_Handle(t *testing.T) {
	hub, url := startFeed(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	ev := &fakeEvent{BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", "p-1")}
	require.NoError(t, NewChangeBroadcaster(hub).Handle(context.Background(), ev))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got shared.ChangeNotice
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "PaymentRecorded", got.Type)
	assert.Equal(t, "payments", got.Entity)
	assert.Equal(t, "p-1", got.Key)
}
