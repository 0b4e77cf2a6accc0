package layout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/livestream-protocol/livestream-go/pkg/shm"
)

// Layout errors.
var (
	// ErrFrameTooLarge indicates a frame that does not fit the data region.
	ErrFrameTooLarge = errors.New("frame exceeds data capacity")

	// ErrInvalidSize indicates a negative package count or capacity.
	ErrInvalidSize = errors.New("invalid layout size")
)

// Layout is one immutable channel block plus its two region views.
type Layout struct {
	id          uuid.UUID
	block       *shm.Block
	numPackages int
	capacity    int
}

// Allocate creates a fresh block of numPackages+dataCapacity bytes.
func Allocate(numPackages, dataCapacity int) (*Layout, error) {
	if numPackages < 0 || dataCapacity < 0 {
		return nil, fmt.Errorf("%w: numPackages=%d capacity=%d", ErrInvalidSize, numPackages, dataCapacity)
	}
	block, err := shm.New(numPackages + dataCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate block: %w", err)
	}
	return &Layout{
		id:          uuid.New(),
		block:       block,
		numPackages: numPackages,
		capacity:    dataCapacity,
	}, nil
}

// Resize returns a new Layout. The receiver is left untouched; holders of
// the old Layout keep reading and writing a block nobody else uses.
func (l *Layout) Resize(newNumPackages, newDataCapacity int) (*Layout, error) {
	return Allocate(newNumPackages, newDataCapacity)
}

// ID uniquely identifies this block allocation.
func (l *Layout) ID() uuid.UUID {
	return l.id
}

// NumPackages returns the flag region size.
func (l *Layout) NumPackages() int {
	return l.numPackages
}

// Capacity returns the data region size in bytes.
func (l *Layout) Capacity() int {
	return l.capacity
}

// Size returns the whole block size in bytes.
func (l *Layout) Size() int {
	return l.block.Len()
}

// DataOffset returns where the data region starts. It always equals NumPackages.
func (l *Layout) DataOffset() int {
	return l.numPackages
}

// Block returns the underlying shared block.
func (l *Layout) Block() *shm.Block {
	return l.block
}

// Flags returns the subscription flag view.
func (l *Layout) Flags() FlagView {
	return FlagView{block: l.block, n: l.numPackages}
}

// Data returns the data region view.
func (l *Layout) Data() DataView {
	return ViewAt(l.block, l.numPackages, l.capacity)
}

// String describes the layout for logs.
func (l *Layout) String() string {
	return fmt.Sprintf("layout %s (packages=%d capacity=%d)", l.id.String()[:8], l.numPackages, l.capacity)
}
