package ring

import (
	"sync"
)

// Ring keeps the most recent entries up to a fixed capacity.
type Ring[T any] struct {
	mu  sync.Mutex
	max int
	ts  []T
}

// New returns a Ring bounded at n entries; n <= 0 retains nothing.
func New[T any](n int) *Ring[T] {
	return &Ring[T]{max: n}
}

// Add appends e, evicting the oldest entries when over capacity.
func (r *Ring[T]) Add(e T) {
	if r.max <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ts = append(r.ts, e)
	if len(r.ts) > r.max {
		r.ts = append(r.ts[:0:0], r.ts[len(r.ts)-r.max:]...)
	}
}

// Snapshot returns the retained entries, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.ts))
	copy(out, r.ts)
	return out
}

// Reset drops all retained entries.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ts = nil
}
