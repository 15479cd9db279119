package accumulator

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the set of value types an accumulator can sum.
type Number interface {
	constraints.Integer | constraints.Float
}

// Accumulator sums values per small integer key (a module index) over short
// rounds. A round is started with StartRound; keys not added during the
// current round are absent from Size, Keys and Values and read as zero.
type Accumulator[T Number] interface {
	// StartRound forgets every entry of the previous round
	StartRound()
	// Add adds value to the running sum for key
	Add(key int, value T)
	// IsSet reports whether key was added during the current round
	IsSet(key int) bool
	// Size returns the number of distinct keys added during the current round
	Size() int
	// At returns a mutable reference to the sum for key
	At(key int) *T
	// Get returns the sum for key, or zero if key is not set
	Get(key int) T
	// Values returns the live sums
	Values() []T
	// Keys returns the live keys in the same order as Values
	Keys() []int
}

// Kind selects an accumulator implementation
type Kind string

const (
	// KindDense is the dense-redirect implementation, bounded by capacity
	KindDense Kind = "dense"
	// KindOrdered is the ordered-map implementation
	KindOrdered Kind = "ordered"
)

// ErrUnknownKind is returned by New for an unsupported Kind.
var ErrUnknownKind = errors.New("unknown accumulator kind")

// New creates an accumulator of the given kind. Capacity bounds the key space
// of a dense accumulator and is ignored by the ordered one.
func New[T Number](kind Kind, capacity int) (Accumulator[T], error) {
	switch kind {
	case KindDense, "":
		return NewDense[T](capacity), nil
	case KindOrdered:
		return NewOrdered[T](), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
