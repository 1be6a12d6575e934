package logging

import (
	"log/slog"
	"sync"
	"time"
)

// Event is one log record as kept in memory and handed to sinks.
type Event struct {
	Time    time.Time      `json:"timestamp"`
	Level   slog.Level     `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"details,omitempty"`
}

// Buffer is a fixed-capacity ring of the most recent events. When full, the
// oldest event is overwritten. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewBuffer creates a ring buffer holding up to capacity events.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{events: make([]Event, capacity)}
}

func (b *Buffer) Add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[b.next] = e
	b.next = (b.next + 1) % len(b.events)
	if b.next == 0 {
		b.full = true
	}
}

// Events returns a copy of the buffered events, oldest first.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		return append([]Event(nil), b.events[:b.next]...)
	}
	out := make([]Event, 0, len(b.events))
	out = append(out, b.events[b.next:]...)
	return append(out, b.events[:b.next]...)
}

// ByLevel returns the buffered events at exactly the given level, oldest first.
func (b *Buffer) ByLevel(level slog.Level) []Event {
	var out []Event
	for _, e := range b.Events() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.events)
	}
	return b.next
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.events)
	b.next = 0
	b.full = false
}
