package accumulator

import "math"

// Dense accumulates into a fixed-capacity value array. Each key carries the
// offset at which it was last written; an entry belongs to the current round
// iff its stamp is at least the current offset. Starting a round only moves
// the offset forward by capacity, so earlier stamps go stale without touching
// the backing arrays. When the offset runs out of headroom the stamps are
// cleared and the offset restarts at 1.
type Dense[T Number] struct {
	capacity  uint32
	values    []T
	keys      []int
	redirect  []uint32
	maxOffset uint32
	offset    uint32
	size      uint32
}

// NewDense creates a dense accumulator for keys in [0, capacity).
func NewDense[T Number](capacity int) *Dense[T] {
	if capacity < 0 {
		capacity = 0
	}
	c := uint32(capacity)
	return &Dense[T]{
		capacity:  c,
		values:    make([]T, c),
		keys:      make([]int, c),
		redirect:  make([]uint32, c),
		maxOffset: math.MaxUint32 - 1 - c,
		offset:    1,
	}
}

// StartRound begins a new accumulation round in O(1), except on offset
// overflow where the stamp array is cleared.
func (d *Dense[T]) StartRound() {
	if d.size > 0 {
		d.offset += d.capacity
		d.size = 0
	}
	if d.offset > d.maxOffset {
		clear(d.redirect)
		d.offset = 1
	}
}

// Add adds value to the sum for key. Key must be below capacity.
func (d *Dense[T]) Add(key int, value T) {
	if d.IsSet(key) {
		d.values[d.redirect[key]-d.offset] += value
		return
	}
	d.redirect[key] = d.offset + d.size
	d.values[d.size] = value
	d.keys[d.size] = key
	d.size++
}

// IsSet reports whether key was written this round
func (d *Dense[T]) IsSet(key int) bool {
	return d.redirect[key] >= d.offset
}

// Size returns the number of keys written this round
func (d *Dense[T]) Size() int {
	return int(d.size)
}

// At returns a reference to the sum for key. The key must be set; for an
// unset key the result points at an unrelated slot.
func (d *Dense[T]) At(key int) *T {
	return &d.values[d.redirect[key]-d.offset]
}

// Get returns the sum for key or zero
func (d *Dense[T]) Get(key int) T {
	if !d.IsSet(key) {
		var zero T
		return zero
	}
	return d.values[d.redirect[key]-d.offset]
}

// Values returns the live sums in insertion order. The slice aliases
// internal storage and is valid until the next StartRound.
func (d *Dense[T]) Values() []T {
	return d.values[:d.size]
}

// Keys returns the live keys in insertion order
func (d *Dense[T]) Keys() []int {
	return d.keys[:d.size]
}
