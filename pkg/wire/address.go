package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AddressSize is the encoded size of an Address: 16 UUID bytes plus a 4-byte slot.
const AddressSize = 16 + wordSize

// Address identifies one telemetry package: the owning entity and a slot
// index within it. Addresses are stable once assigned.
type Address struct {
	// Entity is the owning entity (track, plugin instance, bus).
	Entity uuid.UUID

	// Slot distinguishes packages of the same entity.
	Slot uint32
}

// NewAddress returns the address of slot on entity.
func NewAddress(entity uuid.UUID, slot uint32) Address {
	return Address{Entity: entity, Slot: slot}
}

// String renders the address as "<uuid>/<slot>".
func (a Address) String() string {
	return a.Entity.String() + "/" + strconv.FormatUint(uint64(a.Slot), 10)
}

// ParseAddress parses the form produced by String.
func ParseAddress(s string) (Address, error) {
	entity, slot, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return Address{}, fmt.Errorf("%w: %q: expected <uuid>/<slot>", ErrInvalidAddress, s)
	}
	id, err := uuid.Parse(entity)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	n, err := strconv.ParseUint(slot, 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: bad slot", ErrInvalidAddress, s)
	}
	return Address{Entity: id, Slot: uint32(n)}, nil
}

func appendAddress(dst []byte, a Address) []byte {
	dst = append(dst, a.Entity[:]...)
	return appendUint32(dst, a.Slot)
}

func (c *cursor) readAddress() Address {
	var a Address
	raw := c.readBytes(len(a.Entity))
	if raw == nil {
		return a
	}
	copy(a.Entity[:], raw)
	a.Slot = c.readUint32()
	return a
}
