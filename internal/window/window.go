package window

import (
	"sync"

	"github.com/hejijunhao/chatsift/internal/model"
)

// DefaultCapacity is the number of messages a Window retains.
const DefaultCapacity = 100

// Window is a bounded ring of the most recent chat messages. The pipeline
// goroutine appends as messages arrive; Snapshot hands the classification
// path a copy in arrival order. When full, the oldest message is evicted.
type Window struct {
	mu    sync.Mutex
	buf   []model.ChatMessage
	start int // index of the oldest message
	size  int
}

// New creates a Window holding up to capacity messages. Zero or negative
// capacity selects DefaultCapacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]model.ChatMessage, capacity)}
}

// Add appends a message, evicting the oldest when the window is full.
func (w *Window) Add(m model.ChatMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = m
		w.size++
		return
	}
	w.buf[w.start] = m
	w.start = (w.start + 1) % len(w.buf)
}

// Snapshot returns a copy of the buffered messages, oldest first. The
// window keeps its contents; consecutive snapshots overlap until old
// messages are evicted.
func (w *Window) Snapshot() []model.ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]model.ChatMessage, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Len returns the number of buffered messages.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Cap returns the maximum number of messages the window retains.
func (w *Window) Cap() int {
	return len(w.buf)
}
