package shm

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOutOfRange indicates an access outside the block.
var ErrOutOfRange = errors.New("access out of block range")

// Block is a fixed-size, atomically accessed byte array. Byte i lives in
// word i/4 at bit offset 8*(i%4); the lane mapping is private to the block
// and independent of any wire byte order.
type Block struct {
	words []uint32
	size  int
	seq   atomic.Uint64
}

// New allocates a zeroed block of size bytes.
func New(size int) (*Block, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative block size %d", size)
	}
	return &Block{
		words: make([]uint32, (size+3)/4),
		size:  size,
	}, nil
}

// Len returns the block size in bytes.
func (b *Block) Len() int {
	return b.size
}

func (b *Block) check(off, n int) error {
	if off < 0 || n < 0 || off > b.size-n {
		return fmt.Errorf("%w: [%d, %d) in block of %d bytes", ErrOutOfRange, off, off+n, b.size)
	}
	return nil
}

// LoadByte atomically reads byte i.
func (b *Block) LoadByte(i int) (byte, error) {
	if err := b.check(i, 1); err != nil {
		return 0, err
	}
	w := atomic.LoadUint32(&b.words[i>>2])
	return byte(w >> laneShift(i)), nil
}

// StoreByte atomically writes byte i without disturbing its neighbours.
func (b *Block) StoreByte(i int, v byte) error {
	if err := b.check(i, 1); err != nil {
		return err
	}
	b.storeLane(i, v)
	return nil
}

// AddByte atomically adds delta to byte i and returns the new value. The
// result is clamped to [0, 255]. A byte that reached 255 is sticky.
func (b *Block) AddByte(i int, delta int) (byte, error) {
	if err := b.check(i, 1); err != nil {
		return 0, err
	}
	addr := &b.words[i>>2]
	shift := laneShift(i)
	mask := uint32(0xFF) << shift
	for {
		old := atomic.LoadUint32(addr)
		cur := int(byte(old >> shift))
		next := cur + delta
		switch {
		case cur == 0xFF:
			next = 0xFF
		case next > 0xFF:
			next = 0xFF
		case next < 0:
			next = 0
		}
		nw := old&^mask | uint32(next)<<shift
		if atomic.CompareAndSwapUint32(addr, old, nw) {
			return byte(next), nil
		}
	}
}

// ReadAt copies len(dst) bytes starting at off into dst.
func (b *Block) ReadAt(dst []byte, off int) error {
	if err := b.check(off, len(dst)); err != nil {
		return err
	}
	i := 0
	for i < len(dst) {
		pos := off + i
		w := atomic.LoadUint32(&b.words[pos>>2])
		for lane := pos & 3; lane < 4 && i < len(dst); lane++ {
			dst[i] = byte(w >> (8 * lane))
			i++
		}
	}
	return nil
}

// WriteAt copies src into the block starting at off. Words entirely covered
// by src are stored in one atomic operation; boundary words shared with
// bytes outside the range are updated by compare-and-swap.
func (b *Block) WriteAt(src []byte, off int) error {
	if err := b.check(off, len(src)); err != nil {
		return err
	}
	i := 0
	for i < len(src) && (off+i)&3 != 0 {
		b.storeLane(off+i, src[i])
		i++
	}
	for ; len(src)-i >= 4; i += 4 {
		w := uint32(src[i]) | uint32(src[i+1])<<8 | uint32(src[i+2])<<16 | uint32(src[i+3])<<24
		atomic.StoreUint32(&b.words[(off+i)>>2], w)
	}
	for ; i < len(src); i++ {
		b.storeLane(off+i, src[i])
	}
	return nil
}

// Fill sets n bytes starting at off to v.
func (b *Block) Fill(off, n int, v byte) error {
	if err := b.check(off, n); err != nil {
		return err
	}
	for i := off; i < off+n; i++ {
		b.storeLane(i, v)
	}
	return nil
}

// BeginWrite marks the start of a multi-word update.
func (b *Block) BeginWrite() {
	b.seq.Add(1)
}

// EndWrite marks the end of the update started by BeginWrite.
func (b *Block) EndWrite() {
	b.seq.Add(1)
}

// Sequence returns the write sequence. It is odd while a write is in progress.
func (b *Block) Sequence() uint64 {
	return b.seq.Load()
}

func (b *Block) storeLane(i int, v byte) {
	addr := &b.words[i>>2]
	shift := laneShift(i)
	mask := uint32(0xFF) << shift
	for {
		old := atomic.LoadUint32(addr)
		nw := old&^mask | uint32(v)<<shift
		if atomic.CompareAndSwapUint32(addr, old, nw) {
			return
		}
	}
}

func laneShift(i int) uint {
	return uint(i&3) * 8
}
