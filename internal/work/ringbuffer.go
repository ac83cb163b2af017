package work

import "sync"

// RingBuffer keeps the most recent completed work items, evicting the oldest
// once capacity is reached. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.RWMutex
	items []*Item
	cap   int
	next  int
	full  bool
}

// NewRingBuffer creates a buffer holding up to capacity items.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{
		items: make([]*Item, capacity),
		cap:   capacity,
	}
}

// Push adds an item, evicting the oldest if the buffer is full.
func (r *RingBuffer) Push(item *Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of items currently held.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.full {
		return r.cap
	}
	return r.next
}

// All returns the held items, newest first.
func (r *RingBuffer) All() []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = r.cap
	}

	out := make([]*Item, 0, count)
	for i := 1; i <= count; i++ {
		idx := (r.next - i + r.cap) % r.cap
		out = append(out, r.items[idx])
	}
	return out
}

// Recent returns up to n items, newest first.
func (r *RingBuffer) Recent(n int) []*Item {
	all := r.All()
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Clear empties the buffer.
func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		r.items[i] = nil
	}
	r.next = 0
	r.full = false
}
