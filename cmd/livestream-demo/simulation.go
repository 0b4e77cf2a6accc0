package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Synthetic signal shape.
const (
	spectrumBands = 32
	maxNotes      = 8
)

// errUnknownPackage is returned when removing an address the engine does not publish.
var errUnknownPackage = errors.New("package not in schema")

// Engine is a synthetic audio engine. It publishes meters, a band spectrum,
// parameter mirrors, active MIDI notes and a status blob, depending on the
// package types in its schema.
type Engine struct {
	start time.Time

	// mu serializes schema edits; readers use the atomic pointer.
	mu     sync.Mutex
	schema atomic.Pointer[wire.Schema]

	// Scratch buffers, used from the producer goroutine only.
	spectrum []float32
	notes    []int32
	status   []byte

	computed atomic.Uint64
}

// NewEngine creates an engine publishing s.
func NewEngine(s *wire.Schema) *Engine {
	e := &Engine{
		start:    time.Now(),
		spectrum: make([]float32, spectrumBands),
		notes:    make([]int32, 0, maxNotes),
		status:   make([]byte, 0, 8),
	}
	e.schema.Store(s)
	return e
}

// CurrentSchema returns the packages the engine publishes.
func (e *Engine) CurrentSchema() *wire.Schema {
	return e.schema.Load()
}

// ValueFor computes the current value of addr.
func (e *Engine) ValueFor(addr wire.Address) wire.Value {
	s := e.schema.Load()
	i := s.IndexOf(addr)
	if i < 0 {
		return wire.Value{}
	}
	e.computed.Add(1)
	return e.compute(s.Packages[i], time.Since(e.start).Seconds())
}

// Computed returns how many values were computed.
func (e *Engine) Computed() uint64 {
	return e.computed.Load()
}

// AddPackage appends p to the schema.
func (e *Engine) AddPackage(p wire.Package) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.schema.Load()
	pkgs := append(append([]wire.Package(nil), cur.Packages...), p)
	next, err := wire.NewSchema(cur.Version, pkgs)
	if err != nil {
		return err
	}
	e.schema.Store(next)
	return nil
}

// RemovePackage drops addr from the schema.
func (e *Engine) RemovePackage(addr wire.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.schema.Load()
	i := cur.IndexOf(addr)
	if i < 0 {
		return fmt.Errorf("%w: %s", errUnknownPackage, addr)
	}
	pkgs := make([]wire.Package, 0, cur.Len()-1)
	pkgs = append(pkgs, cur.Packages[:i]...)
	pkgs = append(pkgs, cur.Packages[i+1:]...)
	next, err := wire.NewSchema(cur.Version, pkgs)
	if err != nil {
		return err
	}
	e.schema.Store(next)
	return nil
}

func (e *Engine) compute(p wire.Package, t float64) wire.Value {
	phase := float64(p.Address.Slot) * 0.7

	switch p.Type {
	case wire.TypeFloat:
		// Meter level in [0, 1].
		return wire.FloatValue(float32(0.5 + 0.5*math.Sin(2*math.Pi*0.5*t+phase)))

	case wire.TypeInteger:
		// Parameter mirror sweeping 0..127.
		return wire.IntValue(int32(int(t*16+phase*10) % 128))

	case wire.TypeFloatArray:
		for b := range e.spectrum {
			e.spectrum[b] = float32(0.5 + 0.5*math.Sin(2*t+float64(b)*0.3+phase))
		}
		return wire.FloatArrayValue(e.spectrum)

	case wire.TypeIntegerArray:
		// Chord of 1..maxNotes notes, changing every half second.
		step := int(t * 2)
		n := 1 + step%maxNotes
		e.notes = e.notes[:0]
		for k := 0; k < n; k++ {
			e.notes = append(e.notes, int32(48+(step+k*4)%36))
		}
		return wire.IntArrayValue(e.notes)

	case wire.TypeByteArray:
		e.status = binary.BigEndian.AppendUint32(e.status[:0], uint32(t*1000))
		e.status = append(e.status, byte(p.Address.Slot))
		return wire.BytesValue(e.status)

	default:
		return wire.Zero(p.Type)
	}
}
