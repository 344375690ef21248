package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
	"github.com/hejijunhao/chatsift/internal/window"
)

const defaultInterval = 5 * time.Second

// Processor classifies one batch of messages. The engine satisfies this;
// tests stub it.
type Processor interface {
	Classify(messages []model.ChatMessage) model.ClusterResult
}

// Pipeline connects a connector, processor, sliding window, and output into
// a processing pipeline.
type Pipeline struct {
	connector connector.Connector
	processor Processor
	window    *window.Window
	output    output.Output

	interval time.Duration

	// Messages dropped because their text was empty after trimming.
	droppedMessages atomic.Int64
}

// Option configures Pipeline behavior.
type Option func(*Pipeline)

// WithInterval sets the snapshot cadence for streaming mode.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithWindowSize sets the sliding window capacity.
func WithWindowSize(n int) Option {
	return func(p *Pipeline) {
		p.window = window.New(n)
	}
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, proc Processor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		processor: proc,
		window:    window.New(window.DefaultCapacity),
		output:    out,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Window exposes the live window so other collaborators (the digest
// scheduler) can snapshot it.
func (p *Pipeline) Window() *window.Window {
	return p.window
}

// Stream runs the pipeline in streaming mode: messages flow into the
// sliding window, and every interval the window is snapshotted, classified,
// and written. Blocks until the source closes (final flush, nil) or the
// context is cancelled (ctx.Err()).
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.flush(ctx); err != nil {
				return err
			}
		case m, ok := <-ch:
			if !ok {
				// Source ended; emit what the window still holds.
				if err := p.flush(ctx); err != nil {
					return err
				}
				return nil
			}
			if strings.TrimSpace(m.Text) == "" {
				p.droppedMessages.Add(1)
				continue
			}
			p.window.Add(m)
		}
	}
}

// flush snapshots, classifies, and writes the current window. Empty windows
// are skipped.
func (p *Pipeline) flush(ctx context.Context) error {
	messages := p.window.Snapshot()
	if len(messages) == 0 {
		return nil
	}
	result := p.processor.Classify(messages)
	if err := p.output.Write(ctx, result); err != nil {
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

// Query runs the pipeline in one-shot query mode: fetch, classify once,
// write once.
func (p *Pipeline) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) error {
	messages, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}

	result := p.processor.Classify(messages)
	if err := p.output.Write(ctx, result); err != nil {
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

// Close shuts down the output and reports how many blank messages were
// dropped over the pipeline's lifetime.
func (p *Pipeline) Close() error {
	if n := p.droppedMessages.Load(); n > 0 {
		slog.Info("dropped blank messages", "count", n)
	}
	return p.output.Close()
}
