package connector

import (
	"context"
	"time"

	"github.com/hejijunhao/chatsift/internal/model"
)

// Connector defines the interface all chat source connectors must implement.
type Connector interface {
	// Stream opens a long-lived connection and sends chat messages as they
	// arrive. The channel is closed when the source ends or ctx is done.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.ChatMessage, error)

	// Query fetches a batch of historical messages matching the given
	// parameters. Live-only providers return an error.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.ChatMessage, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider string
	Token    string
	Endpoint string
	Extra    map[string]string
}

// QueryParams defines filters for historical message queries.
type QueryParams struct {
	Start time.Time
	End   time.Time
	Limit int
}
