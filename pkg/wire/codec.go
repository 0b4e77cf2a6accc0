package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// Codec errors.
var (
	// ErrMalformedStructure indicates bytes that are not a valid Structure Frame.
	ErrMalformedStructure = errors.New("malformed structure frame")

	// ErrTruncated indicates input that ends before a complete field.
	ErrTruncated = errors.New("frame truncated")

	// ErrUnknownPackageType indicates an unrecognized type tag.
	ErrUnknownPackageType = errors.New("unknown package type")

	// ErrValueCount indicates a value set whose length differs from the schema.
	ErrValueCount = errors.New("value count does not match schema")

	// ErrValueTypeMismatch indicates a value whose type differs from its package.
	ErrValueTypeMismatch = errors.New("value type does not match package type")

	// ErrInvalidAddress indicates an address string that cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")
)

// wordSize is the width of every integer on the wire.
const wordSize = 4

// byteOrder is the single byte order used end-to-end.
var byteOrder = binary.BigEndian

func appendUint32(dst []byte, v uint32) []byte {
	return byteOrder.AppendUint32(dst, v)
}

func appendInt32(dst []byte, v int32) []byte {
	return byteOrder.AppendUint32(dst, uint32(v))
}

func appendFloat32(dst []byte, v float32) []byte {
	return byteOrder.AppendUint32(dst, math.Float32bits(v))
}

// cursor reads fixed-width fields from a buffer without ever indexing past
// its end. The first failed read latches ok=false; later reads return zero.
type cursor struct {
	buf []byte
	pos int
	ok  bool
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf, ok: true}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) readUint32() uint32 {
	if !c.ok || c.remaining() < wordSize {
		c.ok = false
		return 0
	}
	v := byteOrder.Uint32(c.buf[c.pos:])
	c.pos += wordSize
	return v
}

func (c *cursor) readInt32() int32 {
	return int32(c.readUint32())
}

func (c *cursor) readFloat32() float32 {
	return math.Float32frombits(c.readUint32())
}

func (c *cursor) readByte() byte {
	if !c.ok || c.remaining() < 1 {
		c.ok = false
		return 0
	}
	b := c.buf[c.pos]
	c.pos++
	return b
}

// readBytes returns the next n bytes without copying.
func (c *cursor) readBytes(n int) []byte {
	if !c.ok || n < 0 || c.remaining() < n {
		c.ok = false
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// readCount reads a length prefix and checks that count elements of elemSize
// bytes fit in the rest of the buffer. A torn or corrupt length word is
// rejected here, before anything is allocated.
func (c *cursor) readCount(elemSize int) int {
	n := c.readUint32()
	if !c.ok {
		return 0
	}
	if uint64(n)*uint64(elemSize) > uint64(c.remaining()) {
		c.ok = false
		return 0
	}
	return int(n)
}
