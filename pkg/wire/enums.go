package wire

import (
	"fmt"
	"strings"
)

// Framing sentinels. They are chosen to be implausible as payload data and
// are pairwise distinct so one can never be mistaken for another.
const (
	// IDSentinel opens every Structure Frame.
	IDSentinel uint32 = 0xF0FF0F

	// StartSentinel follows the version word of a Data Frame.
	StartSentinel uint32 = 0xF0F0F0

	// EndSentinel closes a Data Frame.
	EndSentinel uint32 = 0x0F0F0F
)

// PackageType tags how a package value is encoded.
type PackageType uint8

const (
	// TypeFloat is a single IEEE-754 float32.
	TypeFloat PackageType = 0

	// TypeFloatArray is a length-prefixed sequence of float32.
	TypeFloatArray PackageType = 1

	// TypeInteger is a single signed int32.
	TypeInteger PackageType = 2

	// TypeIntegerArray is a length-prefixed sequence of int32.
	TypeIntegerArray PackageType = 3

	// TypeByteArray is a length-prefixed sequence of raw bytes.
	TypeByteArray PackageType = 4
)

// Valid reports whether t is a known package type.
func (t PackageType) Valid() bool {
	return t <= TypeByteArray
}

// IsArray reports whether values of this type carry a length prefix.
func (t PackageType) IsArray() bool {
	return t == TypeFloatArray || t == TypeIntegerArray || t == TypeByteArray
}

// ElementSize returns the encoded size of one element in bytes.
func (t PackageType) ElementSize() int {
	if t == TypeByteArray {
		return 1
	}
	return 4
}

// String returns the package type name.
func (t PackageType) String() string {
	switch t {
	case TypeFloat:
		return "FLOAT"
	case TypeFloatArray:
		return "FLOAT_ARRAY"
	case TypeInteger:
		return "INTEGER"
	case TypeIntegerArray:
		return "INTEGER_ARRAY"
	case TypeByteArray:
		return "BYTE_ARRAY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// ParsePackageType parses a package type name. Matching is case-insensitive
// and accepts both FLOAT_ARRAY and float-array spellings.
func ParsePackageType(s string) (PackageType, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch norm {
	case "FLOAT":
		return TypeFloat, nil
	case "FLOAT_ARRAY":
		return TypeFloatArray, nil
	case "INTEGER", "INT":
		return TypeInteger, nil
	case "INTEGER_ARRAY", "INT_ARRAY":
		return TypeIntegerArray, nil
	case "BYTE_ARRAY", "BYTES":
		return TypeByteArray, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPackageType, s)
	}
}
