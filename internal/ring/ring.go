// Package ring provides a fixed-capacity ring that keeps the most
// recent values pushed into it.
package ring

type Ring[T any] struct {
	items []T
	head  int
	size  int
}

func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends a value, evicting the oldest once the ring is full.
func (r *Ring[T]) Push(value T) {
	if r == nil || len(r.items) == 0 {
		return
	}
	if r.size < len(r.items) {
		r.items[(r.head+r.size)%len(r.items)] = value
		r.size++
		return
	}
	r.items[r.head] = value
	r.head = (r.head + 1) % len(r.items)
}

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

func (r *Ring[T]) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// Values returns the retained values oldest first.
func (r *Ring[T]) Values() []T {
	if r == nil || r.size == 0 {
		return nil
	}
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

// Last returns up to n of the most recent values, oldest first.
func (r *Ring[T]) Last(n int) []T {
	if r == nil || r.size == 0 || n <= 0 {
		return nil
	}
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	start := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.items[(r.head+start+i)%len(r.items)]
	}
	return out
}
