package chatsift

import "github.com/hejijunhao/chatsift/internal/window"

// Window is a bounded ring of the most recent messages for callers running
// their own collection loop. Add messages as they arrive and classify
// Snapshot's return on whatever cadence suits the stream. Safe for
// concurrent use.
type Window struct {
	inner *window.Window
}

// NewWindow creates a Window holding up to capacity messages. Zero or
// negative capacity selects a default of 100.
func NewWindow(capacity int) *Window {
	return &Window{inner: window.New(capacity)}
}

// Add appends a message, evicting the oldest when the window is full.
func (w *Window) Add(m Message) {
	w.inner.Add(toInternal(m))
}

// Snapshot returns a copy of the buffered messages, oldest first. The
// window keeps its contents; consecutive snapshots overlap until old
// messages are evicted.
func (w *Window) Snapshot() []Message {
	internal := w.inner.Snapshot()
	out := make([]Message, len(internal))
	for i, m := range internal {
		out[i] = fromInternal(m)
	}
	return out
}

// Len returns the number of buffered messages.
func (w *Window) Len() int {
	return w.inner.Len()
}

// Cap returns the maximum number of messages the window retains.
func (w *Window) Cap() int {
	return w.inner.Cap()
}
