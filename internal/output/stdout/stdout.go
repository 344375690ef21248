package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
)

// Mode selects the stdout rendering.
type Mode int

const (
	JSON Mode = iota // one JSON object per snapshot (NDJSON)
	Text             // the numbered human-readable rendering
)

// ParseMode maps a config string to a Mode, defaulting to JSON.
func ParseMode(s string) Mode {
	if s == "text" {
		return Text
	}
	return JSON
}

// Output writes classification snapshots to stdout.
type Output struct {
	w         io.Writer
	enc       *json.Encoder
	mode      Mode
	verbosity output.Verbosity
}

// New creates a stdout Output with verbosity-aware sample shaping and
// optional pretty-printed JSON.
func New(mode Mode, verbosity output.Verbosity, pretty bool) *Output {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{w: os.Stdout, enc: enc, mode: mode, verbosity: verbosity}
}

func (o *Output) Write(_ context.Context, result model.ClusterResult) error {
	shaped := output.ShapeResult(result, o.verbosity)
	if o.mode == Text {
		if _, err := fmt.Fprint(o.w, output.FormatResult(shaped)); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if err := o.enc.Encode(shaped); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
