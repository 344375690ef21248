package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/model"
)

var errStreamOnly = errors.New("twitch connector: live stream only, query not supported")

func init() {
	connector.Register("twitch", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements the connector.Connector interface for Twitch IRC chat.
// Without a token it connects anonymously, which Twitch permits for
// read-only chat access.
type Connector struct{}

func toChatMessage(m twitchirc.PrivateMessage) model.ChatMessage {
	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	author := m.User.DisplayName
	if author == "" {
		author = m.User.Name
	}

	return model.ChatMessage{
		Text:      m.Message,
		Author:    author,
		Timestamp: ts.UnixMilli(),
	}
}

func normalizeChannel(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.ChatMessage, error) {
	channel := normalizeChannel(cfg.Extra["channel"])
	if channel == "" {
		return nil, fmt.Errorf("twitch connector: missing required config key \"channel\" in Extra")
	}

	var client *twitchirc.Client
	if cfg.Token == "" {
		client = twitchirc.NewAnonymousClient()
	} else {
		nick := cfg.Extra["nick"]
		if nick == "" {
			return nil, fmt.Errorf("twitch connector: authenticated connection needs config key \"nick\" in Extra")
		}
		client = twitchirc.NewClient(nick, cfg.Token)
	}

	ch := make(chan model.ChatMessage, 64)

	client.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		select {
		case ch <- toChatMessage(m):
		case <-ctx.Done():
		}
	})

	client.OnConnect(func() {
		slog.Info("twitch connected", "channel", channel)
	})

	client.Join(channel)

	go func() {
		defer close(ch)
		errCh := make(chan error, 1)
		go func() { errCh <- client.Connect() }()

		select {
		case <-ctx.Done():
			client.Disconnect()
			<-errCh
		case err := <-errCh:
			if err != nil {
				slog.Warn("twitch connection closed", "error", err)
			}
		}
	}()

	return ch, nil
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.ChatMessage, error) {
	return nil, errStreamOnly
}
