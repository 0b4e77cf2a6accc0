package wire

import (
	"fmt"
	"slices"
)

// FrameHeaderSize is the fixed overhead of a Data Frame: version, START and END.
const FrameHeaderSize = 3 * wordSize

// Frame is a decoded Data Frame.
type Frame struct {
	Version uint32
	Values  []Value
}

// FrameSize returns the encoded size of the Data Frame for values.
func FrameSize(values []Value) int {
	n := FrameHeaderSize
	for _, v := range values {
		n += v.EncodedSize()
	}
	return n
}

// EncodeFrame encodes values as a Data Frame for schema s.
func EncodeFrame(s *Schema, values []Value) ([]byte, error) {
	return AppendFrame(make([]byte, 0, FrameSize(values)), s, values)
}

// AppendFrame appends the Data Frame for values to dst. Values must match the
// schema one-to-one in order and type. On error dst is returned unchanged.
func AppendFrame(dst []byte, s *Schema, values []Value) ([]byte, error) {
	if len(values) != s.Len() {
		return dst, fmt.Errorf("%w: got %d, schema has %d", ErrValueCount, len(values), s.Len())
	}
	for i, v := range values {
		if v.Type != s.Packages[i].Type {
			return dst, fmt.Errorf("%w: package %d (%s) got %s",
				ErrValueTypeMismatch, i, s.Packages[i].Type, v.Type)
		}
	}

	dst = slices.Grow(dst, FrameSize(values))
	dst = appendUint32(dst, s.Version)
	dst = appendUint32(dst, StartSentinel)
	for _, v := range values {
		dst = appendValue(dst, v)
	}
	dst = appendUint32(dst, EndSentinel)
	return dst, nil
}

func appendValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeFloat:
		dst = appendFloat32(dst, v.Float)
	case TypeInteger:
		dst = appendInt32(dst, v.Int)
	case TypeFloatArray:
		dst = appendUint32(dst, uint32(len(v.Floats)))
		for _, f := range v.Floats {
			dst = appendFloat32(dst, f)
		}
	case TypeIntegerArray:
		dst = appendUint32(dst, uint32(len(v.Ints)))
		for _, i := range v.Ints {
			dst = appendInt32(dst, i)
		}
	case TypeByteArray:
		dst = appendUint32(dst, uint32(len(v.Bytes)))
		dst = append(dst, v.Bytes...)
	}
	return dst
}

// PeekFrameVersion returns the version word of a Data Frame.
func PeekFrameVersion(data []byte) (uint32, bool) {
	c := newCursor(data)
	v := c.readUint32()
	return v, c.ok
}

// DecodeFrame decodes a Data Frame written for schema s. It reports false
// when the version differs from s.Version, when either sentinel is damaged,
// or when a payload runs past the end of data. A false result never carries
// partially decoded values.
func DecodeFrame(data []byte, s *Schema) (Frame, bool) {
	values := make([]Value, s.Len())
	if !DecodeFrameInto(data, s, values) {
		return Frame{}, false
	}
	return Frame{Version: s.Version, Values: values}, true
}

// DecodeFrameInto decodes into dst, which must have len s.Len(). Array
// fields already present in dst are reused, so a steady-state consumer
// decodes without allocating. When it reports false, dst holds partial
// data and must be discarded.
func DecodeFrameInto(data []byte, s *Schema, dst []Value) bool {
	if len(dst) != s.Len() {
		return false
	}
	c := newCursor(data)

	if c.readUint32() != s.Version || !c.ok {
		return false
	}
	if c.readUint32() != StartSentinel || !c.ok {
		return false
	}

	for i, p := range s.Packages {
		if !c.readValue(p.Type, &dst[i]) {
			return false
		}
	}

	return c.readUint32() == EndSentinel && c.ok
}

func (c *cursor) readValue(t PackageType, v *Value) bool {
	v.Type = t
	switch t {
	case TypeFloat:
		v.Float = c.readFloat32()
	case TypeInteger:
		v.Int = c.readInt32()
	case TypeFloatArray:
		n := c.readCount(wordSize)
		v.Floats = slices.Grow(v.Floats[:0], n)[:n]
		for j := range v.Floats {
			v.Floats[j] = c.readFloat32()
		}
	case TypeIntegerArray:
		n := c.readCount(wordSize)
		v.Ints = slices.Grow(v.Ints[:0], n)[:n]
		for j := range v.Ints {
			v.Ints[j] = c.readInt32()
		}
	case TypeByteArray:
		n := c.readCount(1)
		v.Bytes = append(v.Bytes[:0], c.readBytes(n)...)
	default:
		return false
	}
	return c.ok
}
