package chatsift

import (
	"fmt"

	"github.com/hejijunhao/chatsift/internal/engine"
	"github.com/hejijunhao/chatsift/internal/engine/rules"
	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
)

// Chatsift is a chat classification engine. It routes messages into labeled
// buckets using ordered substring cues. Safe for concurrent use.
type Chatsift struct {
	engine    *engine.Engine
	verbosity output.Verbosity
}

// New creates a Chatsift instance. Construction is cheap; a single instance
// can serve every snapshot.
func New(opts ...Option) (*Chatsift, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	table := rules.DefaultTable()
	if o.rulesFile != "" {
		var err error
		table, err = rules.LoadFile(o.rulesFile)
		if err != nil {
			return nil, fmt.Errorf("chatsift: %w", err)
		}
	}

	eng := engine.New(engine.Config{Table: table, SampleLimit: o.sampleLimit})
	return &Chatsift{engine: eng, verbosity: output.ParseVerbosity(o.verbosity)}, nil
}

// Classify groups messages into labeled buckets. Messages whose text is
// empty after trimming are dropped before counting; bucket counts always
// sum to ProcessedCount.
func (c *Chatsift) Classify(messages []Message) Result {
	internal := make([]model.ChatMessage, len(messages))
	for i, m := range messages {
		internal[i] = toInternal(m)
	}
	return resultFromInternal(c.engine.Classify(internal))
}

// ClassifyTexts classifies raw message strings. Use Classify when you have
// author and timestamp information.
func (c *Chatsift) ClassifyTexts(texts []string) Result {
	messages := make([]model.ChatMessage, len(texts))
	for i, t := range texts {
		messages[i] = model.ChatMessage{Text: t}
	}
	return resultFromInternal(c.engine.Classify(messages))
}

// ClassifyJSON classifies a JSON array of messages with the wire shape
// {"text": ..., "author": ..., "timestamp": ...}. Input that is not an
// array is rejected. Individual items that do not decode are dropped and
// the rest of the batch still counts.
func (c *Chatsift) ClassifyJSON(data []byte) (Result, error) {
	r, err := c.engine.ClassifyJSON(data)
	if err != nil {
		return Result{}, err
	}
	return resultFromInternal(r), nil
}

// Format renders a result as numbered buckets with up to two quoted
// samples each, shaped by the configured verbosity.
func (c *Chatsift) Format(result Result) string {
	shaped := output.ShapeResult(internalFromResult(result), c.verbosity)
	return output.FormatResult(shaped)
}
