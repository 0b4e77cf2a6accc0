package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/livestream-protocol/livestream-go/pkg/announce"
	"github.com/livestream-protocol/livestream-go/pkg/layout"
	"github.com/livestream-protocol/livestream-go/pkg/log"
	"github.com/livestream-protocol/livestream-go/pkg/subscription"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Broadcaster errors.
var (
	// ErrNoSchema is returned by Tick before any schema was published.
	ErrNoSchema = errors.New("no schema published")

	// ErrNilSchema is returned when a nil schema is published.
	ErrNilSchema = errors.New("nil schema")
)

// Reasons recorded with schema announcements.
const (
	ReasonSchema = "schema"
	ReasonGrow   = "grow"
)

// Config configures a Broadcaster.
type Config struct {
	// InstanceID names the broadcaster in protocol events. Empty means a
	// random UUID.
	InstanceID string

	// Hints size the data region of each new layout.
	Hints layout.Hints

	// Placeholder selects what unsubscribed packages carry.
	Placeholder PlaceholderPolicy

	// Logger for operational messages (optional).
	Logger *slog.Logger

	// ProtocolLogger captures structure and error events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with default capacity hints.
func DefaultConfig() Config {
	return Config{
		Hints:       layout.DefaultHints(),
		Placeholder: PlaceholderZero,
	}
}

// Stats are cumulative Broadcaster counters.
type Stats struct {
	Ticks          uint64
	Computed       uint64
	Skipped        uint64
	TypeMismatches uint64
	Growths        uint64
	SchemaChanges  uint64
	WriteErrors    uint64
}

// binding is the writer's view of one published schema. It is replaced as a
// whole, never mutated, so a schema can never be paired with another
// schema's layout.
type binding struct {
	schema  *wire.Schema
	layout  *layout.Layout
	flags   subscription.FlagTable
	data    layout.DataView
	handoff handoff
}

// subscribed reports whether package i has a consumer. The replaced layouts
// are read before the binding's own flags: a consumer raises its new flag
// before it releases the old one, so this order never misses it.
func (c *binding) subscribed(i int) bool {
	return c.handoff.subscribed(i) || c.flags.IsSubscribed(i)
}

// Broadcaster is the producer driver.
type Broadcaster struct {
	bus        *announce.Bus
	config     Config
	instanceID string

	logger         *slog.Logger
	protocolLogger log.Logger

	// mu serializes writers. On the real-time path it is uncontended.
	mu      sync.Mutex
	current atomic.Pointer[binding]
	version uint32

	// Producer scratch, owned under mu.
	values     []wire.Value
	buf        []byte
	lastSource *wire.Schema

	ticks          atomic.Uint64
	computed       atomic.Uint64
	skipped        atomic.Uint64
	typeMismatches atomic.Uint64
	growths        atomic.Uint64
	schemaChanges  atomic.Uint64
	writeErrors    atomic.Uint64
}

// New creates a Broadcaster announcing on bus.
func New(bus *announce.Bus, config Config) *Broadcaster {
	if config.Hints == (layout.Hints{}) {
		config.Hints = layout.DefaultHints()
	}
	id := config.InstanceID
	if id == "" {
		id = uuid.NewString()
	}
	return &Broadcaster{
		bus:            bus,
		config:         config,
		instanceID:     id,
		logger:         config.Logger,
		protocolLogger: log.OrNoop(config.ProtocolLogger),
	}
}

// InstanceID returns the name used in protocol events.
func (b *Broadcaster) InstanceID() string {
	return b.instanceID
}

// Current returns the published schema and its layout, or nils before the
// first publish.
func (b *Broadcaster) Current() (*wire.Schema, *layout.Layout) {
	cur := b.current.Load()
	if cur == nil {
		return nil, nil
	}
	return cur.schema, cur.layout
}

// Version returns the last published schema version, 0 before the first.
func (b *Broadcaster) Version() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// PublishSchemaChange announces the packages of s under the next version
// and moves the writer to a freshly allocated layout. The announcement
// always precedes the switch. It returns the schema as published.
func (b *Broadcaster) PublishSchemaChange(s *wire.Schema) (*wire.Schema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := b.publishLocked(s.Packages, 0, ReasonSchema)
	if err != nil {
		return nil, err
	}
	return next.schema, nil
}

// Sync publishes the source's schema if its package list differs from the
// one in use.
func (b *Broadcaster) Sync(src Source) error {
	s := src.CurrentSchema()
	if s == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s == b.lastSource {
		return nil
	}
	if cur := b.current.Load(); cur != nil && cur.schema.SameLayout(s) {
		b.lastSource = s
		return nil
	}
	if _, err := b.publishLocked(s.Packages, 0, ReasonSchema); err != nil {
		return err
	}
	b.lastSource = s
	return nil
}

// Tick encodes one Data Frame from src and writes it into the data region.
// Only packages whose subscription flag is set are computed. Right after a
// republish the flags of the replaced layouts count too, until every
// consumer has released them. If the frame
// outgrows the region, the same packages are republished on a larger
// layout and the frame is written there.
func (b *Broadcaster) Tick(src Source) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.current.Load()
	if cur == nil {
		return ErrNoSchema
	}
	b.ticks.Add(1)

	if cur.handoff != nil && !cur.handoff.active() {
		cur = &binding{schema: cur.schema, layout: cur.layout, flags: cur.flags, data: cur.data}
		b.current.Store(cur)
	}

	for i, p := range cur.schema.Packages {
		if !cur.subscribed(i) {
			b.skipped.Add(1)
			if b.config.Placeholder == PlaceholderZero {
				clearValue(&b.values[i], p.Type)
			}
			continue
		}

		v := src.ValueFor(p.Address)
		b.computed.Add(1)
		if v.Type != p.Type {
			b.typeMismatches.Add(1)
			clearValue(&b.values[i], p.Type)
			continue
		}
		assignValue(&b.values[i], v)
	}

	frame, err := wire.AppendFrame(b.buf[:0], cur.schema, b.values)
	if err != nil {
		b.writeErrors.Add(1)
		return fmt.Errorf("encode frame: %w", err)
	}
	b.buf = frame

	if len(frame) > cur.layout.Capacity() {
		cur, err = b.growLocked(cur, len(frame))
		if err != nil {
			b.writeErrors.Add(1)
			return err
		}
		frame, err = wire.AppendFrame(b.buf[:0], cur.schema, b.values)
		if err != nil {
			b.writeErrors.Add(1)
			return fmt.Errorf("encode frame: %w", err)
		}
		b.buf = frame
	}

	if err := cur.data.WriteFrame(frame); err != nil {
		b.writeErrors.Add(1)
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Run calls Sync and Tick every interval until ctx is done. Errors are
// logged and counted; the loop keeps going.
func (b *Broadcaster) Run(ctx context.Context, src Source, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.Sync(src); err != nil {
				b.warn("schema sync failed", "error", err)
				continue
			}
			if err := b.Tick(src); err != nil && !errors.Is(err, ErrNoSchema) {
				b.warn("tick failed", "error", err)
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (b *Broadcaster) Stats() Stats {
	return Stats{
		Ticks:          b.ticks.Load(),
		Computed:       b.computed.Load(),
		Skipped:        b.skipped.Load(),
		TypeMismatches: b.typeMismatches.Load(),
		Growths:        b.growths.Load(),
		SchemaChanges:  b.schemaChanges.Load(),
		WriteErrors:    b.writeErrors.Load(),
	}
}

func (b *Broadcaster) growLocked(cur *binding, need int) (*binding, error) {
	capacity := layout.GrowCapacity(cur.layout.Capacity(), need)
	b.protocolLogger.Log(log.Event{
		Timestamp:     time.Now(),
		InstanceID:    b.instanceID,
		Role:          log.RoleProducer,
		Layer:         log.LayerBroadcast,
		Category:      log.CategoryFrame,
		SchemaVersion: cur.schema.Version,
		LayoutID:      cur.layout.ID().String(),
		Frame: &log.FrameEvent{
			Outcome: log.FrameOverflow,
			Version: cur.schema.Version,
			Size:    need,
		},
	})

	next, err := b.publishLocked(cur.schema.Packages, capacity, ReasonGrow)
	if err != nil {
		return nil, fmt.Errorf("grow layout to %d bytes: %w", capacity, err)
	}
	b.growths.Add(1)
	return next, nil
}

// publishLocked allocates a layout for packages, announces it and only then
// swaps the writer binding.
func (b *Broadcaster) publishLocked(packages []wire.Package, minCapacity int, reason string) (*binding, error) {
	schema, err := wire.NewSchema(b.version+1, packages)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	capacity := max(layout.EstimateCapacity(schema, b.config.Hints), minCapacity)
	l, err := layout.Allocate(schema.Len(), capacity)
	if err != nil {
		return nil, fmt.Errorf("allocate layout: %w", err)
	}

	seq, err := b.bus.Publish(announce.Message{
		Structure: wire.EncodeStructure(schema),
		Layout:    l,
	})
	if err != nil {
		b.logError(fmt.Sprintf("announce schema %d: %v", schema.Version, err), reason)
		return nil, fmt.Errorf("announce schema %d: %w", schema.Version, err)
	}

	prev := b.current.Load()
	b.values = carryValues(prev, schema, b.values)
	b.version = schema.Version

	next := &binding{
		schema:  schema,
		layout:  l,
		flags:   subscription.NewFlagTable(l.Flags()),
		data:    l.Data(),
		handoff: newHandoff(prev, schema),
	}
	b.current.Store(next)
	b.schemaChanges.Add(1)

	b.debugLog("schema published",
		"version", schema.Version,
		"packages", schema.Len(),
		"capacity", capacity,
		"reason", reason)
	b.protocolLogger.Log(log.Event{
		Timestamp:     time.Now(),
		InstanceID:    b.instanceID,
		Role:          log.RoleProducer,
		Layer:         log.LayerBroadcast,
		Category:      log.CategoryStructure,
		SchemaVersion: schema.Version,
		LayoutID:      l.ID().String(),
		Structure: &log.StructureEvent{
			Action:      log.StructurePublished,
			Version:     schema.Version,
			NumPackages: schema.Len(),
			Capacity:    capacity,
			Sequence:    seq,
			Reason:      reason,
		},
	})
	return next, nil
}

// carryValues builds the value slots for schema, keeping the last values of
// packages that survive the change.
func carryValues(prev *binding, schema *wire.Schema, old []wire.Value) []wire.Value {
	values := make([]wire.Value, schema.Len())
	for i, p := range schema.Packages {
		values[i] = wire.Zero(p.Type)
		if prev == nil {
			continue
		}
		if j := prev.schema.IndexOf(p.Address); j >= 0 && j < len(old) && old[j].Type == p.Type {
			values[i] = old[j]
		}
	}
	return values
}

// assignValue copies v into dst, reusing dst's array storage. The source may
// reuse its own buffers after ValueFor returns.
func assignValue(dst *wire.Value, v wire.Value) {
	dst.Type = v.Type
	dst.Float = v.Float
	dst.Int = v.Int
	dst.Floats = append(dst.Floats[:0], v.Floats...)
	dst.Ints = append(dst.Ints[:0], v.Ints...)
	dst.Bytes = append(dst.Bytes[:0], v.Bytes...)
}

func clearValue(dst *wire.Value, t wire.PackageType) {
	dst.Type = t
	dst.Float = 0
	dst.Int = 0
	dst.Floats = dst.Floats[:0]
	dst.Ints = dst.Ints[:0]
	dst.Bytes = dst.Bytes[:0]
}

func (b *Broadcaster) logError(msg, detail string) {
	b.warn(msg)
	b.protocolLogger.Log(log.Event{
		Timestamp:  time.Now(),
		InstanceID: b.instanceID,
		Role:       log.RoleProducer,
		Layer:      log.LayerBroadcast,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerBroadcast,
			Message: msg,
			Context: detail,
		},
	})
}

func (b *Broadcaster) debugLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Broadcaster) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
