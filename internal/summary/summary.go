// Package summary turns classification results into short prose digests.
package summary

import (
	"context"
	"log/slog"

	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
)

// Summarizer produces a short prose digest of one classification result.
type Summarizer interface {
	Summarize(ctx context.Context, result model.ClusterResult) (string, error)
}

const promptInstruction = `You are summarizing one window of live-stream chat.
Below is a breakdown of the chat into labeled buckets with message counts and
a few sample messages. Reply with a one or two sentence plain-text digest of
what the chat is focused on. No markdown, no preamble.`

const defaultPromptBudget = 1024

// BuildPrompt renders the instruction plus the formatted result. When the
// token estimate exceeds the budget, sample lines are pruned one per bucket
// at a time; count lines are never pruned.
func BuildPrompt(result model.ClusterResult, budget int) string {
	if budget <= 0 {
		budget = defaultPromptBudget
	}

	maxSamples := 0
	for _, b := range result.Buckets {
		if len(b.Samples) > maxSamples {
			maxSamples = len(b.Samples)
		}
	}

	for limit := maxSamples; ; limit-- {
		prompt := promptInstruction + "\n\n" + output.FormatResult(capSamples(result, limit))
		if EstimateTokens(prompt) <= budget || limit == 0 {
			return prompt
		}
	}
}

func capSamples(result model.ClusterResult, limit int) model.ClusterResult {
	capped := result
	capped.Buckets = make([]model.ClusterBucket, len(result.Buckets))
	copy(capped.Buckets, result.Buckets)
	for i := range capped.Buckets {
		if len(capped.Buckets[i].Samples) > limit {
			capped.Buckets[i].Samples = capped.Buckets[i].Samples[:limit]
		}
	}
	return capped
}

// Fallback tries a primary summarizer and falls back to a backup when the
// primary fails.
type Fallback struct {
	primary Summarizer
	backup  Summarizer
}

func NewFallback(primary, backup Summarizer) *Fallback {
	return &Fallback{primary: primary, backup: backup}
}

func (f *Fallback) Summarize(ctx context.Context, result model.ClusterResult) (string, error) {
	text, err := f.primary.Summarize(ctx, result)
	if err == nil {
		return text, nil
	}
	slog.Warn("primary summarizer failed, using fallback", "error", err)
	return f.backup.Summarize(ctx, result)
}
