package wire

import (
	"bytes"
	"fmt"
	"math"
	"slices"
)

// Value is one package value. Only the field matching Type is meaningful.
type Value struct {
	Type   PackageType
	Float  float32
	Int    int32
	Floats []float32
	Ints   []int32
	Bytes  []byte
}

// FloatValue returns a TypeFloat value.
func FloatValue(f float32) Value {
	return Value{Type: TypeFloat, Float: f}
}

// IntValue returns a TypeInteger value.
func IntValue(i int32) Value {
	return Value{Type: TypeInteger, Int: i}
}

// FloatArrayValue returns a TypeFloatArray value. The slice is not copied.
func FloatArrayValue(f []float32) Value {
	return Value{Type: TypeFloatArray, Floats: f}
}

// IntArrayValue returns a TypeIntegerArray value. The slice is not copied.
func IntArrayValue(i []int32) Value {
	return Value{Type: TypeIntegerArray, Ints: i}
}

// BytesValue returns a TypeByteArray value. The slice is not copied.
func BytesValue(b []byte) Value {
	return Value{Type: TypeByteArray, Bytes: b}
}

// Zero returns the cheapest value of type t: 0 for scalars, empty for arrays.
func Zero(t PackageType) Value {
	return Value{Type: t}
}

// Len returns the element count for array types and 1 for scalars.
func (v Value) Len() int {
	switch v.Type {
	case TypeFloatArray:
		return len(v.Floats)
	case TypeIntegerArray:
		return len(v.Ints)
	case TypeByteArray:
		return len(v.Bytes)
	default:
		return 1
	}
}

// EncodedSize returns the number of payload bytes v occupies in a Data Frame.
func (v Value) EncodedSize() int {
	if !v.Type.IsArray() {
		return wordSize
	}
	return wordSize + v.Len()*v.Type.ElementSize()
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	out.Floats = slices.Clone(v.Floats)
	out.Ints = slices.Clone(v.Ints)
	out.Bytes = slices.Clone(v.Bytes)
	return out
}

// Equal compares type and the meaningful field. Nil and empty arrays are
// equal. Floats compare by bit pattern, the way they travel on the wire, so
// NaN equals an identical NaN and 0 differs from -0.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeFloat:
		return math.Float32bits(v.Float) == math.Float32bits(other.Float)
	case TypeInteger:
		return v.Int == other.Int
	case TypeFloatArray:
		return slices.EqualFunc(v.Floats, other.Floats, func(a, b float32) bool {
			return math.Float32bits(a) == math.Float32bits(b)
		})
	case TypeIntegerArray:
		return slices.Equal(v.Ints, other.Ints)
	case TypeByteArray:
		return bytes.Equal(v.Bytes, other.Bytes)
	default:
		return false
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.Type {
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeInteger:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloatArray:
		return fmt.Sprintf("%v", v.Floats)
	case TypeIntegerArray:
		return fmt.Sprintf("%v", v.Ints)
	case TypeByteArray:
		return fmt.Sprintf("%x", v.Bytes)
	default:
		return v.Type.String()
	}
}
