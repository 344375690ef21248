package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hejijunhao/chatsift/internal/engine/normalizer"
	"github.com/hejijunhao/chatsift/internal/engine/rules"
	"github.com/hejijunhao/chatsift/internal/model"
)

// DefaultSampleLimit is the number of raw message texts kept per bucket.
const DefaultSampleLimit = 3

// Config controls classification behavior.
type Config struct {
	Table       *rules.Table // rule set; nil selects rules.DefaultTable
	SampleLimit int          // raw texts kept per bucket (default 3)
}

// Engine groups chat messages into labeled buckets using an ordered rule
// table. It holds no mutable state: identical input produces identical
// output, and a single Engine is safe for concurrent use.
type Engine struct {
	table       *rules.Table
	sampleLimit int
}

// New creates an Engine with the given config, applying defaults for any
// zero fields.
func New(cfg Config) *Engine {
	if cfg.Table == nil {
		cfg.Table = rules.DefaultTable()
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = DefaultSampleLimit
	}
	return &Engine{
		table:       cfg.Table,
		sampleLimit: cfg.SampleLimit,
	}
}

// Table returns the rule table the engine classifies with.
func (e *Engine) Table() *rules.Table {
	return e.table
}

// group accumulates messages routed to one rule category.
type group struct {
	label   string
	count   int
	samples []string
}

// Classify groups messages into labeled buckets. Messages whose text is
// empty after trimming are dropped before counting. Buckets are ordered by
// descending count; ties keep rule-table order. The sum of bucket counts
// always equals ProcessedCount.
func (e *Engine) Classify(messages []model.ChatMessage) model.ClusterResult {
	// Indexed by rule order so ties resolve to table precedence below.
	groups := make([]*group, e.table.Len())

	processed := 0
	for _, m := range messages {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		processed++

		idx, label := e.table.Match(normalizer.Normalize(m.Text))
		g := groups[idx]
		if g == nil {
			g = &group{label: label}
			groups[idx] = g
		}
		g.count++
		if len(g.samples) < e.sampleLimit {
			g.samples = append(g.samples, m.Text)
		}
	}

	buckets := make([]model.ClusterBucket, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		buckets = append(buckets, model.ClusterBucket{
			Label:   g.label,
			Count:   g.count,
			Samples: g.samples,
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})

	return model.ClusterResult{
		Buckets:        buckets,
		ProcessedCount: processed,
	}
}

// ClassifyJSON decodes a JSON array of chat messages and classifies it.
// Input that is not an array fails the whole call at the decode boundary;
// a valid empty array yields an empty result. Individual items that do not
// decode (wrong shape, non-string text) are dropped so the rest of the
// batch still counts; items with a missing or blank text field decode
// cleanly and are dropped by Classify.
func (e *Engine) ClassifyJSON(data []byte) (model.ClusterResult, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return model.ClusterResult{}, fmt.Errorf("invalid input: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var m model.ChatMessage
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return e.Classify(messages), nil
}
