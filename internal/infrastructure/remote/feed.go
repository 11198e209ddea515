package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/shared"
)

// FeedURL returns the websocket URL of the server change feed
func (c *Client) FeedURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + apiPrefix + "/feed"
	return u.String()
}

// Subscribe connects to the change feed and calls onNotice for every change
// until ctx is cancelled or the connection drops. It returns nil only when
// ctx ends the subscription.
func (c *Client) Subscribe(ctx context.Context, onNotice func(shared.ChangeNotice)) error {
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.FeedURL(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial feed: %w", &APIError{StatusCode: resp.StatusCode})
		}
		return fmt.Errorf("dial feed: %w", err)
	}
	c.logger.Info("change feed connected", zap.String("url", c.FeedURL()))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("feed closed by server: %w", err)
			}
			return fmt.Errorf("read feed: %w", err)
		}

		var notice shared.ChangeNotice
		if err := json.Unmarshal(data, &notice); err != nil {
			c.logger.Warn("ignoring malformed feed message", zap.Error(err))
			continue
		}
		if notice.Type == "" {
			continue
		}
		onNotice(notice)
	}
}
