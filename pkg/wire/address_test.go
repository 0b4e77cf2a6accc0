package wire

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAddressStringRoundTrip(t *testing.T) {
	addr := NewAddress(uuid.MustParse("6f1c2a52-0d8e-4c4b-9b55-2f0e3c1d7a10"), 7)

	s := addr.String()
	if s != "6f1c2a52-0d8e-4c4b-9b55-2f0e3c1d7a10/7" {
		t.Fatalf("String() = %q", s)
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress failed: %v", err)
	}
	if parsed != addr {
		t.Errorf("ParseAddress = %v, want %v", parsed, addr)
	}
}

func TestParseAddressInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"not-a-uuid/1",
		"6f1c2a52-0d8e-4c4b-9b55-2f0e3c1d7a10",
		"6f1c2a52-0d8e-4c4b-9b55-2f0e3c1d7a10/-1",
		"6f1c2a52-0d8e-4c4b-9b55-2f0e3c1d7a10/x",
	} {
		if _, err := ParseAddress(in); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) error = %v, want ErrInvalidAddress", in, err)
		}
	}
}

func TestAddressEncodedSize(t *testing.T) {
	addr := NewAddress(uuid.New(), 3)
	buf := appendAddress(nil, addr)
	if len(buf) != AddressSize {
		t.Fatalf("encoded address is %d bytes, want %d", len(buf), AddressSize)
	}

	got := newCursor(buf).readAddress()
	if got != addr {
		t.Errorf("readAddress = %v, want %v", got, addr)
	}
}
