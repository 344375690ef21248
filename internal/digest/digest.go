// Package digest runs scheduled summary passes over the live chat window.
package digest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/summary"
)

// DefaultSchedule fires every five minutes (six-field cron with seconds).
const DefaultSchedule = "0 */5 * * * *"

// Snapshotter provides the current window contents.
type Snapshotter interface {
	Snapshot() []model.ChatMessage
}

// Processor classifies one batch of messages.
type Processor interface {
	Classify(messages []model.ChatMessage) model.ClusterResult
}

// Service periodically snapshots the window, classifies it, summarizes the
// result, and delivers the digest line.
type Service struct {
	schedule   string
	window     Snapshotter
	processor  Processor
	summarizer summary.Summarizer
	onDigest   func(text string)
	cron       *cron.Cron
}

// Option configures Service behavior.
type Option func(*Service)

// WithSchedule overrides the cron expression (six fields, seconds first).
func WithSchedule(expr string) Option {
	return func(s *Service) {
		if expr != "" {
			s.schedule = expr
		}
	}
}

// WithOnDigest registers a callback invoked with each digest line, after it
// has been logged.
func WithOnDigest(fn func(text string)) Option {
	return func(s *Service) {
		s.onDigest = fn
	}
}

func New(window Snapshotter, processor Processor, summarizer summary.Summarizer, opts ...Option) *Service {
	s := &Service{
		schedule:   DefaultSchedule,
		window:     window,
		processor:  processor,
		summarizer: summarizer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the schedule and begins firing. The ctx bounds each
// summarize call.
func (s *Service) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("digest: invalid schedule %q: %w", s.schedule, err)
	}
	s.cron = c
	c.Start()
	slog.Info("digest scheduler started", "schedule", s.schedule)
	return nil
}

func (s *Service) run(ctx context.Context) {
	messages := s.window.Snapshot()
	if len(messages) == 0 {
		slog.Debug("digest skipped, empty window")
		return
	}

	result := s.processor.Classify(messages)
	text, err := s.summarizer.Summarize(ctx, result)
	if err != nil {
		slog.Warn("digest summarize failed", "error", err)
		return
	}

	slog.Info("chat digest", "summary", text, "processed", result.ProcessedCount)
	if s.onDigest != nil {
		s.onDigest(text)
	}
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	slog.Info("digest scheduler stopped")
}
