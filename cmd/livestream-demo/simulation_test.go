package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livestream-protocol/livestream-go/pkg/config"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

func defaultSchema(t *testing.T) *wire.Schema {
	t.Helper()
	s, err := config.Default().Schema()
	require.NoError(t, err)
	return s
}

func TestEngineValuesMatchSchemaTypes(t *testing.T) {
	s := defaultSchema(t)
	e := NewEngine(s)

	for _, p := range s.Packages {
		v := e.ValueFor(p.Address)
		assert.Equal(t, p.Type, v.Type, "package %s", p)
	}
	assert.Equal(t, uint64(s.Len()), e.Computed())

	spectrum := e.ValueFor(s.Packages[2].Address)
	assert.Len(t, spectrum.Floats, spectrumBands)

	notes := e.ValueFor(s.Packages[4].Address)
	assert.NotEmpty(t, notes.Ints)
	assert.LessOrEqual(t, len(notes.Ints), maxNotes)
}

func TestEngineUnknownAddress(t *testing.T) {
	e := NewEngine(defaultSchema(t))
	v := e.ValueFor(wire.NewAddress(uuid.New(), 0))
	assert.Equal(t, wire.Value{}, v)
	assert.Equal(t, uint64(0), e.Computed())
}

func TestEngineSchemaEdits(t *testing.T) {
	s := defaultSchema(t)
	e := NewEngine(s)

	extra := wire.Package{Address: wire.NewAddress(uuid.New(), 9), Type: wire.TypeFloat}
	require.NoError(t, e.AddPackage(extra))
	assert.Equal(t, s.Len()+1, e.CurrentSchema().Len())
	assert.True(t, e.CurrentSchema().Contains(extra.Address))

	assert.Error(t, e.AddPackage(extra), "duplicate address")

	require.NoError(t, e.RemovePackage(s.Packages[0].Address))
	assert.False(t, e.CurrentSchema().Contains(s.Packages[0].Address))
	assert.ErrorIs(t, e.RemovePackage(s.Packages[0].Address), errUnknownPackage)

	// The original schema value is never mutated.
	assert.Equal(t, 6, s.Len())
}
