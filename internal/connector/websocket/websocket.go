package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/model"
)

const initialBackoff = 1 * time.Second
const maxBackoff = 30 * time.Second

var errStreamOnly = errors.New("websocket connector: live stream only, query not supported")

func init() {
	connector.Register("websocket", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements the connector.Connector interface for a generic
// JSON chat feed: one ChatMessage object per text frame.
type Connector struct{}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.ChatMessage, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		return nil, fmt.Errorf("websocket connector: missing required endpoint")
	}

	backoffStart := initialBackoff
	if raw := cfg.Extra["backoff"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			backoffStart = d
		}
	}

	dialer := gws.Dialer{HandshakeTimeout: 10 * time.Second}

	// First dial is synchronous so a bad endpoint fails fast.
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connector: dial %s: %w", endpoint, err)
	}

	ch := make(chan model.ChatMessage, 64)
	go func() {
		defer close(ch)

		readFrames(ctx, conn, ch)

		// Reconnect until ctx ends. Every redial waits at least one
		// backoff period; the delay grows only on dial failures.
		backoff := backoffStart
		for {
			if ctx.Err() != nil {
				return
			}
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}

			conn, _, err := dialer.DialContext(ctx, endpoint, nil)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("websocket dial failed, retrying", "endpoint", endpoint, "backoff", backoff, "error", err)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = backoffStart
			readFrames(ctx, conn, ch)
		}
	}()

	return ch, nil
}

// readFrames consumes one connection until it errors, forwarding decoded
// messages. Malformed frames are skipped. The connection is closed before
// returning.
func readFrames(ctx context.Context, conn *gws.Conn, ch chan<- model.ChatMessage) {
	defer conn.Close()

	// ReadMessage has no context support; close the connection to
	// interrupt it when ctx ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}

		var m model.ChatMessage
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("skipping malformed frame", "connector", "websocket", "error", err)
			continue
		}

		select {
		case ch <- m:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.ChatMessage, error) {
	return nil, errStreamOnly
}
