package wire

import "fmt"

// structureHeaderSize covers IDSentinel, version and numPackages.
const structureHeaderSize = 3 * wordSize

// structureEntrySize is one package entry: address plus a 1-byte type tag.
const structureEntrySize = AddressSize + 1

// StructureSize returns the encoded size of the Structure Frame for s.
func StructureSize(s *Schema) int {
	return structureHeaderSize + s.Len()*structureEntrySize
}

// EncodeStructure encodes s as a Structure Frame.
func EncodeStructure(s *Schema) []byte {
	return AppendStructure(make([]byte, 0, StructureSize(s)), s)
}

// AppendStructure appends the Structure Frame for s to dst.
func AppendStructure(dst []byte, s *Schema) []byte {
	dst = appendUint32(dst, IDSentinel)
	dst = appendUint32(dst, s.Version)
	dst = appendUint32(dst, uint32(s.Len()))
	for _, p := range s.Packages {
		dst = appendAddress(dst, p.Address)
		dst = append(dst, byte(p.Type))
	}
	return dst
}

// IsStructureFrame reports whether data starts with IDSentinel. It is how
// Structure Frames are told apart from other side-channel messages.
func IsStructureFrame(data []byte) bool {
	c := newCursor(data)
	return c.readUint32() == IDSentinel && c.ok
}

// DecodeStructure decodes a Structure Frame into a new Schema.
func DecodeStructure(data []byte) (*Schema, error) {
	c := newCursor(data)

	flag := c.readUint32()
	if !c.ok {
		return nil, fmt.Errorf("%w: %w: missing sentinel", ErrMalformedStructure, ErrTruncated)
	}
	if flag != IDSentinel {
		return nil, fmt.Errorf("%w: sentinel 0x%06X, want 0x%06X", ErrMalformedStructure, flag, IDSentinel)
	}

	version := c.readUint32()
	n := c.readUint32()
	if !c.ok {
		return nil, fmt.Errorf("%w: %w: incomplete header", ErrMalformedStructure, ErrTruncated)
	}
	if uint64(n)*structureEntrySize > uint64(c.remaining()) {
		return nil, fmt.Errorf("%w: %w: %d packages need %d bytes, have %d",
			ErrMalformedStructure, ErrTruncated, n, uint64(n)*structureEntrySize, c.remaining())
	}

	packages := make([]Package, n)
	for i := range packages {
		packages[i].Address = c.readAddress()
		tag := PackageType(c.readByte())
		if !tag.Valid() {
			return nil, fmt.Errorf("%w: %w: package %d tag %d", ErrMalformedStructure, ErrUnknownPackageType, i, tag)
		}
		packages[i].Type = tag
	}

	s, err := NewSchema(version, packages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedStructure, err)
	}
	return s, nil
}
