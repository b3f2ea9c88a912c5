package logging

import (
	"sync"

	"fresco/internal/ring"
)

// Buffer retains the most recent entries for replay to late log
// stream subscribers.
type Buffer struct {
	mu      sync.Mutex
	entries *ring.Ring[Entry]
}

func NewBuffer(size int) *Buffer {
	return &Buffer{entries: ring.New[Entry](size)}
}

func (b *Buffer) Add(entry Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Push(entry)
}

// Recent returns the retained entries oldest first.
func (b *Buffer) Recent() []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Values()
}

// Last returns up to n of the most recent entries oldest first.
func (b *Buffer) Last(n int) []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Last(n)
}
