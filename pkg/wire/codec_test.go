package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestCursorLatchesOnShortRead(t *testing.T) {
	c := newCursor([]byte{0x00, 0x01})

	if v := c.readUint32(); v != 0 {
		t.Errorf("readUint32 on short buffer = %d, want 0", v)
	}
	if c.ok {
		t.Fatal("cursor should latch ok=false after short read")
	}
	if b := c.readByte(); b != 0 || c.ok {
		t.Errorf("readByte after failure = %d (ok=%v), want 0 (ok=false)", b, c.ok)
	}
}

func TestCursorCountRejectsOversizedLength(t *testing.T) {
	buf := appendUint32(nil, 0xFFFFFFFF)
	buf = append(buf, 1, 2, 3, 4)

	c := newCursor(buf)
	if n := c.readCount(wordSize); n != 0 || c.ok {
		t.Fatalf("readCount = %d (ok=%v), want 0 (ok=false)", n, c.ok)
	}
}

func TestBigEndianByteOrder(t *testing.T) {
	got := appendUint32(nil, StartSentinel)
	want := []byte{0x00, 0xF0, 0xF0, 0xF0}
	if !bytes.Equal(got, want) {
		t.Errorf("StartSentinel encoded as % X, want % X", got, want)
	}
}

func TestSentinelsDistinct(t *testing.T) {
	if IDSentinel == StartSentinel || IDSentinel == EndSentinel || StartSentinel == EndSentinel {
		t.Fatal("sentinels must be pairwise distinct")
	}
}

func TestParsePackageType(t *testing.T) {
	tests := []struct {
		in   string
		want PackageType
	}{
		{"float", TypeFloat},
		{"FLOAT_ARRAY", TypeFloatArray},
		{"float-array", TypeFloatArray},
		{"int", TypeInteger},
		{"integer_array", TypeIntegerArray},
		{"bytes", TypeByteArray},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePackageType(tt.in)
			if err != nil {
				t.Fatalf("ParsePackageType(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePackageType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParsePackageType("double"); !errors.Is(err, ErrUnknownPackageType) {
		t.Errorf("ParsePackageType(double) error = %v, want ErrUnknownPackageType", err)
	}
}

func TestPackageTypeString(t *testing.T) {
	if s := TypeIntegerArray.String(); s != "INTEGER_ARRAY" {
		t.Errorf("String() = %q", s)
	}
	if s := PackageType(9).String(); s != "UNKNOWN(9)" {
		t.Errorf("String() = %q", s)
	}
}
