package layout

import (
	"fmt"

	"github.com/livestream-protocol/livestream-go/pkg/shm"
)

// FlagView addresses the subscription flag bytes of a block.
type FlagView struct {
	block *shm.Block
	n     int
}

// Len returns the number of flags.
func (f FlagView) Len() int {
	return f.n
}

// Load returns flag i. Out-of-range indices read as zero.
func (f FlagView) Load(i int) byte {
	if i < 0 || i >= f.n {
		return 0
	}
	v, _ := f.block.LoadByte(i)
	return v
}

// Store sets flag i.
func (f FlagView) Store(i int, v byte) error {
	if i < 0 || i >= f.n {
		return fmt.Errorf("%w: flag %d of %d", shm.ErrOutOfRange, i, f.n)
	}
	return f.block.StoreByte(i, v)
}

// Add adjusts flag i by delta with saturation and returns the new value.
func (f FlagView) Add(i int, delta int) (byte, error) {
	if i < 0 || i >= f.n {
		return 0, fmt.Errorf("%w: flag %d of %d", shm.ErrOutOfRange, i, f.n)
	}
	return f.block.AddByte(i, delta)
}

// DataView addresses a data region of a block.
type DataView struct {
	block    *shm.Block
	offset   int
	capacity int
}

// ViewAt builds a data view at an arbitrary offset. Layout.Data is the only
// correct view for a given Layout; ViewAt exists for tooling that inspects
// raw blocks.
func ViewAt(block *shm.Block, offset, capacity int) DataView {
	return DataView{block: block, offset: offset, capacity: capacity}
}

// Offset returns the byte offset of the region within its block.
func (d DataView) Offset() int {
	return d.offset
}

// Capacity returns the region size in bytes.
func (d DataView) Capacity() int {
	return d.capacity
}

// WriteFrame stores an encoded Data Frame at the start of the region.
// The write is bracketed by the block's write sequence so concurrent
// readers can tell a torn copy from a stable one.
func (d DataView) WriteFrame(frame []byte) error {
	if len(frame) > d.capacity {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), d.capacity)
	}
	d.block.BeginWrite()
	defer d.block.EndWrite()
	return d.block.WriteAt(frame, d.offset)
}

// ReadFrame copies the whole region into dst (grown as needed) and returns
// the copy. ok is false when a write overlapped the copy. A true result
// still has to pass frame validation: the region may hold a frame for a
// different schema version, or nothing at all.
func (d DataView) ReadFrame(dst []byte) (data []byte, ok bool) {
	if cap(dst) < d.capacity {
		dst = make([]byte, d.capacity)
	}
	dst = dst[:d.capacity]

	before := d.block.Sequence()
	if before&1 != 0 {
		return dst, false
	}
	if err := d.block.ReadAt(dst, d.offset); err != nil {
		return dst, false
	}
	return dst, d.block.Sequence() == before
}
