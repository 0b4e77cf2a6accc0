package layout

import (
	"math"

	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Default capacity hints.
const (
	DefaultArrayHint = 64
	DefaultBytesHint = 64
	DefaultHeadroom  = 1.5
)

// Hints guide how much data capacity a schema is given. Arrays are variable
// length, so the producer can only estimate; a frame that outgrows its
// region triggers a reallocation.
type Hints struct {
	// ArrayHint is the expected element count of FloatArray/IntegerArray packages.
	ArrayHint int

	// BytesHint is the expected length of ByteArray packages.
	BytesHint int

	// Headroom multiplies the estimate. Values below 1 are treated as 1.
	Headroom float64
}

// DefaultHints returns the default capacity hints.
func DefaultHints() Hints {
	return Hints{
		ArrayHint: DefaultArrayHint,
		BytesHint: DefaultBytesHint,
		Headroom:  DefaultHeadroom,
	}
}

// EstimateCapacity returns a data capacity for schema s.
func EstimateCapacity(s *wire.Schema, h Hints) int {
	n := wire.FrameHeaderSize
	for _, p := range s.Packages {
		switch p.Type {
		case wire.TypeFloat, wire.TypeInteger:
			n += 4
		case wire.TypeFloatArray, wire.TypeIntegerArray:
			n += 4 + 4*max(h.ArrayHint, 0)
		case wire.TypeByteArray:
			n += 4 + max(h.BytesHint, 0)
		}
	}
	return int(math.Ceil(float64(n) * max(h.Headroom, 1)))
}

// GrowCapacity returns a capacity of at least need bytes, at least double
// the current one, so repeated overflow settles in a few steps.
func GrowCapacity(current, need int) int {
	return max(need, 2*current)
}
