package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/connector/httpclient"
	"github.com/hejijunhao/chatsift/internal/model"
)

const defaultEndpoint = "https://www.googleapis.com"
const defaultPollInterval = 5 * time.Second

var errStreamOnly = errors.New("youtube connector: live stream only, query not supported")

func init() {
	connector.Register("youtube", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements the connector.Connector interface for YouTube Live
// chat via the liveChatMessages cursor API.
type Connector struct{}

// Response types (unexported).

type chatResponse struct {
	Items         []chatItem `json:"items"`
	NextPageToken string     `json:"nextPageToken"`
}

type chatItem struct {
	Snippet       snippet       `json:"snippet"`
	AuthorDetails authorDetails `json:"authorDetails"`
}

type snippet struct {
	DisplayMessage string `json:"displayMessage"`
	PublishedAt    string `json:"publishedAt"` // RFC 3339
}

type authorDetails struct {
	DisplayName string `json:"displayName"`
}

func toChatMessage(item chatItem) model.ChatMessage {
	var ms int64
	if ts, err := time.Parse(time.RFC3339Nano, item.Snippet.PublishedAt); err == nil {
		ms = ts.UnixMilli()
	}

	return model.ChatMessage{
		Text:      item.Snippet.DisplayMessage,
		Author:    item.AuthorDetails.DisplayName,
		Timestamp: ms,
	}
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.ChatMessage, error) {
	liveChatID := cfg.Extra["live_chat_id"]
	if liveChatID == "" {
		return nil, fmt.Errorf("youtube connector: missing required config key \"live_chat_id\" in Extra")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("youtube connector: missing required API token")
	}

	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = defaultEndpoint
	}
	client := httpclient.New(baseURL, cfg.Token)
	path := "/youtube/v3/liveChat/messages"

	pollInterval := defaultPollInterval
	if raw := cfg.Extra["poll_interval"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			pollInterval = d
		}
	}

	ch := make(chan model.ChatMessage, 64)
	go func() {
		defer close(ch)
		cursor := ""
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		cursor = poll(ctx, client, path, liveChatID, cursor, ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cursor = poll(ctx, client, path, liveChatID, cursor, ch)
			}
		}
	}()

	return ch, nil
}

func poll(ctx context.Context, client *httpclient.Client, path, liveChatID, cursor string, ch chan<- model.ChatMessage) string {
	q := url.Values{}
	q.Set("liveChatId", liveChatID)
	q.Set("part", "snippet,authorDetails")
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var resp chatResponse
	if err := client.GetJSON(ctx, path, q, &resp); err != nil {
		slog.Warn("poll error", "connector", "youtube", "error", err)
		return cursor
	}

	for _, item := range resp.Items {
		select {
		case ch <- toChatMessage(item):
		case <-ctx.Done():
			return cursor
		}
	}

	if resp.NextPageToken != "" {
		return resp.NextPageToken
	}
	return cursor
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.ChatMessage, error) {
	return nil, errStreamOnly
}
