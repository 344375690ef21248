package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
)

// Heuristic is a deterministic template summarizer used when no LLM is
// configured or the LLM is unreachable. It round-trips the result through
// the text rendering and its parser, so the digest always agrees with what
// a reader of the formatted output sees.
type Heuristic struct{}

func (Heuristic) Summarize(ctx context.Context, result model.ClusterResult) (string, error) {
	if result.ProcessedCount == 0 || len(result.Buckets) == 0 {
		return "No chat activity in this window.", nil
	}

	parsed := output.ParseSummary(output.FormatResult(result))
	if len(parsed) == 0 {
		return "", fmt.Errorf("heuristic summarizer: no buckets recovered from rendering")
	}

	lead := parsed[0]
	text := fmt.Sprintf("Chat is mostly %s (%d of %d messages).",
		strings.ToLower(lead.Label), lead.Count, result.ProcessedCount)
	if len(parsed) > 1 {
		second := parsed[1]
		text += fmt.Sprintf(" Next most common: %s (%d).",
			strings.ToLower(second.Label), second.Count)
	}
	return text, nil
}
