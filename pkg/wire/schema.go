package wire

import "fmt"

// Package is one schema entry: where a value lives and how it is encoded.
type Package struct {
	Address Address
	Type    PackageType
}

// String returns "<address>:<type>".
func (p Package) String() string {
	return fmt.Sprintf("%s:%s", p.Address, p.Type)
}

// Schema is an immutable, versioned list of packages. The position of a
// package in Packages is its index in the flag table and its position in
// every Data Frame written against this version.
type Schema struct {
	// Version identifies this schema. Data Frames carry it.
	Version uint32

	// Packages in wire order.
	Packages []Package

	index map[Address]int
}

// NewSchema builds a schema from a copy of packages. Duplicate addresses are
// rejected since the address is the join key between schema and data.
func NewSchema(version uint32, packages []Package) (*Schema, error) {
	s := &Schema{
		Version:  version,
		Packages: append([]Package(nil), packages...),
		index:    make(map[Address]int, len(packages)),
	}
	for i, p := range s.Packages {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: package %d has tag %d", ErrUnknownPackageType, i, p.Type)
		}
		if prev, dup := s.index[p.Address]; dup {
			return nil, fmt.Errorf("duplicate address %s at %d and %d", p.Address, prev, i)
		}
		s.index[p.Address] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// static schemas.
func MustSchema(version uint32, packages ...Package) *Schema {
	s, err := NewSchema(version, packages)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of packages.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Packages)
}

// IndexOf returns the position of addr, or -1 when absent.
func (s *Schema) IndexOf(addr Address) int {
	if s == nil {
		return -1
	}
	if s.index != nil {
		if i, ok := s.index[addr]; ok {
			return i
		}
		return -1
	}
	for i, p := range s.Packages {
		if p.Address == addr {
			return i
		}
	}
	return -1
}

// Contains reports whether addr is part of the schema.
func (s *Schema) Contains(addr Address) bool {
	return s.IndexOf(addr) >= 0
}

// WithVersion returns a copy of s carrying a different version.
func (s *Schema) WithVersion(version uint32) *Schema {
	out, _ := NewSchema(version, s.Packages)
	return out
}

// SameLayout reports whether s and other list the same packages in the same
// order, ignoring version.
func (s *Schema) SameLayout(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.Packages {
		if s.Packages[i] != other.Packages[i] {
			return false
		}
	}
	return true
}

// Equal reports whether s and other have the same version and packages.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Version == other.Version && s.SameLayout(other)
}
