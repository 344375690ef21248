package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/model"
)

const defaultInterval = 100 * time.Millisecond

// Chat lines are short, but pasted walls of text exist; 1 MiB covers them.
const maxLineBytes = 1024 * 1024

func init() {
	connector.Register("replay", func() connector.Connector {
		return &Connector{}
	})
}

// Connector replays chat history from an NDJSON file, one ChatMessage
// object per line. Stream paces messages at a fixed interval and closes at
// EOF; Query reads the whole file at once.
type Connector struct{}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.ChatMessage, error) {
	path := cfg.Extra["file"]
	if path == "" {
		return nil, fmt.Errorf("replay connector: missing required config key \"file\" in Extra")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay connector: %w", err)
	}

	interval := defaultInterval
	if raw := cfg.Extra["interval"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			interval = d
		}
	}

	ch := make(chan model.ChatMessage, 64)
	go func() {
		defer close(ch)
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var m model.ChatMessage
			if err := json.Unmarshal(line, &m); err != nil {
				slog.Warn("skipping malformed line", "connector", "replay", "line", lineNo, "error", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			select {
			case ch <- m:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("replay read error", "file", path, "error", err)
		}
	}()

	return ch, nil
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.ChatMessage, error) {
	path := cfg.Extra["file"]
	if path == "" {
		return nil, fmt.Errorf("replay connector: missing required config key \"file\" in Extra")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay connector: %w", err)
	}
	defer f.Close()

	var results []model.ChatMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var m model.ChatMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("replay connector: line %d: %w", lineNo, err)
		}

		ts := time.UnixMilli(m.Timestamp)
		if !params.Start.IsZero() && ts.Before(params.Start) {
			continue
		}
		if !params.End.IsZero() && !ts.Before(params.End) {
			continue
		}

		results = append(results, m)
		if params.Limit > 0 && len(results) >= params.Limit {
			return results[:params.Limit], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay connector: %w", err)
	}

	return results, nil
}
