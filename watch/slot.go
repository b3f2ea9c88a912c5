// Package watch provides a single-slot broadcast cell: one writer
// publishing successive values, many readers each tracking which
// version they have seen. Readers that fall behind observe only the
// latest value, never a backlog.
package watch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once the writer side has been closed.
var ErrClosed = errors.New("watch: slot closed")

// Slot holds the most recent value sent along with a version counter.
// Sending never blocks and never waits for readers. The zero Slot is
// not usable; construct with NewSlot.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	has     bool
	version uint64
	closed  bool
	notify  chan struct{}
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{notify: make(chan struct{})}
}

// Send replaces the current value, bumps the version and wakes every
// cursor suspended in Next. It returns ErrClosed after Close; it never
// blocks on readers.
func (s *Slot[T]) Send(value T) error {
	if s == nil {
		return ErrClosed
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.value = value
	s.has = true
	s.version++
	close(s.notify)
	s.notify = make(chan struct{})
	s.mu.Unlock()
	return nil
}

// Close drops the writer side. The last sent value stays readable via
// Peek; suspended and future Next calls return ErrClosed. Close is
// idempotent.
func (s *Slot[T]) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.notify)
	}
	s.mu.Unlock()
}

// Subscribe returns a cursor that treats the current version as already
// seen: its first Next call suspends until a send that happens after
// subscription. Cursors are independent and need no teardown.
func (s *Slot[T]) Subscribe() *Cursor[T] {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Cursor[T]{slot: s, seen: s.version}
}

// Cursor is one reader's position in a Slot. Not safe for concurrent
// use by multiple goroutines; subscribe once per consumer instead.
type Cursor[T any] struct {
	slot *Slot[T]
	seen uint64
}

// Next suspends until the slot's version passes the cursor's, then
// returns the current value and marks it seen. Intermediate values
// overwritten while the cursor was away are skipped. Cancelling ctx
// returns ctx.Err() and leaves the cursor position untouched.
func (c *Cursor[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if c == nil || c.slot == nil {
		return zero, ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		c.slot.mu.Lock()
		if c.slot.version > c.seen {
			c.seen = c.slot.version
			value := c.slot.value
			c.slot.mu.Unlock()
			return value, nil
		}
		if c.slot.closed {
			c.slot.mu.Unlock()
			return zero, ErrClosed
		}
		wake := c.slot.notify
		c.slot.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-wake:
		}
	}
}

// Peek returns the current value without suspending and without
// advancing the cursor. The second return is false before the first
// send. Peek keeps working after Close.
func (c *Cursor[T]) Peek() (T, bool) {
	var zero T
	if c == nil || c.slot == nil {
		return zero, false
	}
	c.slot.mu.Lock()
	defer c.slot.mu.Unlock()
	if !c.slot.has {
		return zero, false
	}
	return c.slot.value, true
}
