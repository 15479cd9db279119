package accumulator

import (
	"maps"
	"slices"
)

// Ordered accumulates into a map and exposes its entries in ascending key
// order. The flat key and value views are rebuilt lazily after a mutation.
type Ordered[T Number] struct {
	sums   map[int]*T
	keys   []int
	values []T
	dirty  bool
}

// NewOrdered creates an empty ordered accumulator
func NewOrdered[T Number]() *Ordered[T] {
	return &Ordered[T]{
		sums:  make(map[int]*T),
		dirty: true,
	}
}

// StartRound discards all entries
func (o *Ordered[T]) StartRound() {
	clear(o.sums)
	o.dirty = true
}

// Add adds value to the sum for key, starting from zero on first touch
func (o *Ordered[T]) Add(key int, value T) {
	*o.At(key) += value
}

// IsSet reports whether key has an entry this round
func (o *Ordered[T]) IsSet(key int) bool {
	_, ok := o.sums[key]
	return ok
}

// Size returns the number of entries
func (o *Ordered[T]) Size() int {
	return len(o.sums)
}

// At returns a reference to the sum for key, inserting a zero entry if absent.
func (o *Ordered[T]) At(key int) *T {
	o.dirty = true
	if v, ok := o.sums[key]; ok {
		return v
	}
	v := new(T)
	o.sums[key] = v
	return v
}

// Get returns the sum for key or zero
func (o *Ordered[T]) Get(key int) T {
	if v, ok := o.sums[key]; ok {
		return *v
	}
	var zero T
	return zero
}

// Values returns the sums in ascending key order. The slice aliases internal
// storage and is rewritten by the first Keys or Values call after a mutation.
func (o *Ordered[T]) Values() []T {
	o.materialize()
	return o.values
}

// Keys returns the keys in ascending order, aliased the same way as Values
func (o *Ordered[T]) Keys() []int {
	o.materialize()
	return o.keys
}

func (o *Ordered[T]) materialize() {
	if !o.dirty {
		return
	}
	o.keys = slices.AppendSeq(o.keys[:0], maps.Keys(o.sums))
	slices.Sort(o.keys)
	o.values = o.values[:0]
	for _, k := range o.keys {
		o.values = append(o.values, *o.sums[k])
	}
	o.dirty = false
}
