package subscription

import (
	"fmt"

	"github.com/livestream-protocol/livestream-go/pkg/layout"
)

// Flag values. A flag counts the consumers listening to its package and
// saturates at FlagSaturated, after which it no longer drops.
const (
	FlagInactive  byte = 0
	FlagSaturated byte = 0xFF
)

// FlagTable is the subscription flag region of one layout.
type FlagTable struct {
	flags layout.FlagView
}

// NewFlagTable wraps a layout's flag view.
func NewFlagTable(flags layout.FlagView) FlagTable {
	return FlagTable{flags: flags}
}

// Len returns the number of flags.
func (t FlagTable) Len() int {
	return t.flags.Len()
}

// SetSubscribed adds (active) or removes one consumer from flag index. Every
// consumer sharing the block calls it once per transition, so the flag stays
// non-zero while any of them listens. It never blocks and expects no
// acknowledgment from the producer.
func (t FlagTable) SetSubscribed(index int, active bool) error {
	delta := -1
	if active {
		delta = 1
	}
	if _, err := t.flags.Add(index, delta); err != nil {
		return fmt.Errorf("set subscription flag: %w", err)
	}
	return nil
}

// Consumers returns the consumer count held in flag index.
func (t FlagTable) Consumers(index int) int {
	return int(t.flags.Load(index))
}

// IsSubscribed reports whether flag index is non-zero. Indices outside the
// table read as not subscribed.
func (t FlagTable) IsSubscribed(index int) bool {
	return t.flags.Load(index) != FlagInactive
}

// ActiveCount returns how many flags are set.
func (t FlagTable) ActiveCount() int {
	n := 0
	for i := 0; i < t.flags.Len(); i++ {
		if t.IsSubscribed(i) {
			n++
		}
	}
	return n
}
