package receiver

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

// Hub errors.
var (
	// ErrStaleSchema is returned for a structure whose version is not newer
	// than the adopted one. The message is ignored.
	ErrStaleSchema = errors.New("stale schema version")

	// ErrMissingLayout is returned for an announcement without a block.
	ErrMissingLayout = errors.New("announcement carries no layout")

	// ErrLayoutMismatch is returned when the announced block's flag region
	// does not match the schema's package count.
	ErrLayoutMismatch = errors.New("layout does not match schema")
)

// Config configures a Hub.
type Config struct {
	// InstanceID names the hub in protocol events. Empty means a random UUID.
	InstanceID string

	// Logger for operational messages (optional).
	Logger *slog.Logger

	// ProtocolLogger captures structure, frame and subscription events (optional).
	ProtocolLogger log.Logger
}

// Stats are cumulative Hub counters.
type Stats struct {
	Polls     uint64
	Accepted  uint64
	Stale     uint64
	Torn      uint64
	Adopted   uint64
	Ignored   uint64
	Malformed uint64
}

// binding is one adopted schema with the block it was announced with.
type binding struct {
	schema *wire.Schema
	layout *layout.Layout
	flags  subscription.FlagTable
	data   layout.DataView
}

// Hub is the consumer driver.
type Hub struct {
	instanceID     string
	logger         *slog.Logger
	protocolLogger log.Logger

	registry *subscription.Registry

	// pollMu serializes Poll, including listener fan-out.
	pollMu sync.Mutex

	// mu guards the binding swap, flag writes and the value buffers.
	mu          sync.Mutex
	current     atomic.Pointer[binding]
	values      []wire.Value
	scratch     []wire.Value
	readBuf     []byte
	lastOutcome log.FrameOutcome
	hasValues   bool

	polls     atomic.Uint64
	accepted  atomic.Uint64
	stale     atomic.Uint64
	torn      atomic.Uint64
	adopted   atomic.Uint64
	ignored   atomic.Uint64
	malformed atomic.Uint64
}

// NewHub creates a hub in StateAwaitingStructure.
func NewHub(config Config) *Hub {
	id := config.InstanceID
	if id == "" {
		id = uuid.NewString()
	}
	return &Hub{
		instanceID:     id,
		logger:         config.Logger,
		protocolLogger: log.OrNoop(config.ProtocolLogger),
		registry:       subscription.NewRegistry(),
		lastOutcome:    log.FrameAccepted,
	}
}

// InstanceID returns the name used in protocol events.
func (h *Hub) InstanceID() string {
	return h.instanceID
}

// State returns the synchronization state.
func (h *Hub) State() State {
	if h.current.Load() == nil {
		return StateAwaitingStructure
	}
	return StateSynced
}

// Version returns the adopted schema version, 0 while awaiting structure.
func (h *Hub) Version() uint32 {
	if cur := h.current.Load(); cur != nil {
		return cur.schema.Version
	}
	return 0
}

// Schema returns the adopted schema, or nil while awaiting structure.
func (h *Hub) Schema() *wire.Schema {
	if cur := h.current.Load(); cur != nil {
		return cur.schema
	}
	return nil
}

// OnStructureMessage adopts the schema and layout carried by msg if its
// version is newer than the current one. Malformed and stale messages are
// logged and leave the hub untouched.
func (h *Hub) OnStructureMessage(msg announce.Message) error {
	schema, err := wire.DecodeStructure(msg.Structure)
	if err != nil {
		h.malformed.Add(1)
		h.logStructure(log.StructureMalformed, nil, msg, err.Error())
		h.warn("discarding malformed structure", "sequence", msg.Sequence, "error", err)
		return fmt.Errorf("decode structure: %w", err)
	}
	if msg.Layout == nil {
		h.malformed.Add(1)
		h.logStructure(log.StructureMalformed, schema, msg, ErrMissingLayout.Error())
		return fmt.Errorf("schema %d: %w", schema.Version, ErrMissingLayout)
	}
	if msg.Layout.NumPackages() != schema.Len() {
		h.malformed.Add(1)
		h.logStructure(log.StructureMalformed, schema, msg, ErrLayoutMismatch.Error())
		return fmt.Errorf("schema %d has %d packages, layout %d: %w",
			schema.Version, schema.Len(), msg.Layout.NumPackages(), ErrLayoutMismatch)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.current.Load()
	if prev != nil && schema.Version <= prev.schema.Version {
		h.ignored.Add(1)
		h.logStructure(log.StructureIgnored, schema, msg, "")
		return fmt.Errorf("%w: got %d, have %d", ErrStaleSchema, schema.Version, prev.schema.Version)
	}

	next := &binding{
		schema: schema,
		layout: msg.Layout,
		flags:  subscription.NewFlagTable(msg.Layout.Flags()),
		data:   msg.Layout.Data(),
	}

	// Raise flags for every address with listeners, including ones that were
	// waiting for a schema that contains them.
	for _, addr := range h.registry.Addresses() {
		if i := schema.IndexOf(addr); i >= 0 {
			if err := next.flags.SetSubscribed(i, true); err != nil {
				return fmt.Errorf("reapply subscription %s: %w", addr, err)
			}
		}
	}

	h.values = zeroValues(schema)
	h.scratch = zeroValues(schema)
	h.hasValues = false
	h.lastOutcome = log.FrameAccepted
	h.current.Store(next)
	h.adopted.Add(1)

	// Release this hub's share of the old layout's flags only after the new
	// ones are up, so a producer still on the old layout never sees a gap.
	if prev != nil {
		for _, addr := range h.registry.Addresses() {
			if i := prev.schema.IndexOf(addr); i >= 0 {
				_ = prev.flags.SetSubscribed(i, false)
			}
		}
	}

	h.logStructure(log.StructureAdopted, schema, msg, "")
	if prev == nil {
		h.logState(StateAwaitingStructure, StateSynced, "structure adopted")
	}
	h.debugLog("schema adopted",
		"version", schema.Version,
		"sequence", msg.Sequence,
		"packages", schema.Len(),
		"layout", msg.Layout.String())
	return nil
}

// Poll reads the data region once. It reports whether a valid frame was
// accepted; in that case every listener of a package in the frame is called
// in schema order. A rejected frame leaves the last known-good values in
// place. Poll must not be called from a listener.
func (h *Hub) Poll() bool {
	h.pollMu.Lock()
	defer h.pollMu.Unlock()

	h.mu.Lock()
	cur := h.current.Load()
	if cur == nil {
		h.mu.Unlock()
		return false
	}
	h.polls.Add(1)

	data, ok := cur.data.ReadFrame(h.readBuf)
	h.readBuf = data

	outcome := log.FrameAccepted
	switch {
	case !ok:
		outcome = log.FrameTorn
	case !wire.DecodeFrameInto(data, cur.schema, h.scratch):
		outcome = log.FrameTorn
		if v, _ := wire.PeekFrameVersion(data); v != cur.schema.Version {
			outcome = log.FrameStale
		}
	}

	if outcome != log.FrameAccepted {
		if outcome == log.FrameStale {
			h.stale.Add(1)
		} else {
			h.torn.Add(1)
		}
		h.noteOutcome(cur, outcome)
		h.mu.Unlock()
		return false
	}

	h.values, h.scratch = h.scratch, h.values
	h.hasValues = true
	h.accepted.Add(1)
	h.noteOutcome(cur, outcome)
	values := h.values
	h.mu.Unlock()

	for i, p := range cur.schema.Packages {
		h.registry.Dispatch(p.Address, values[i])
	}
	return true
}

// Subscribe registers fn for addr. The first listener of an address raises
// its flag. If addr is not part of the adopted schema the subscription is
// kept and its flag raised once a schema containing it is adopted.
func (h *Hub) Subscribe(addr wire.Address, fn subscription.Listener) (subscription.ListenerID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, first, err := h.registry.Add(addr, fn)
	if err != nil {
		return 0, err
	}
	if first {
		if err := h.setFlag(addr, true); err != nil {
			_, _ = h.registry.Remove(addr, id)
			return 0, err
		}
	}
	return id, nil
}

// Unsubscribe removes listener id. The last listener of an address clears
// its flag.
func (h *Hub) Unsubscribe(addr wire.Address, id subscription.ListenerID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	last, err := h.registry.Remove(addr, id)
	if err != nil {
		return err
	}
	if last {
		return h.setFlag(addr, false)
	}
	return nil
}

// Listening reports whether addr has at least one listener.
func (h *Hub) Listening(addr wire.Address) bool {
	return h.registry.Active(addr)
}

// Subscriptions returns the addresses with listeners.
func (h *Hub) Subscriptions() []wire.Address {
	return h.registry.Addresses()
}

// Latest returns a copy of the last accepted value of addr. ok is false
// while no frame has been accepted for the current schema or when addr is
// not part of it.
func (h *Hub) Latest(addr wire.Address) (wire.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.current.Load()
	if cur == nil || !h.hasValues {
		return wire.Value{}, false
	}
	i := cur.schema.IndexOf(addr)
	if i < 0 {
		return wire.Value{}, false
	}
	return h.values[i].Clone(), true
}

// Close drops every listener and clears their flags so the producer stops
// computing for this hub.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, addr := range h.registry.Addresses() {
		_ = h.setFlag(addr, false)
	}
	h.registry.ClearAll()
}

// Stats returns a snapshot of the counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Polls:     h.polls.Load(),
		Accepted:  h.accepted.Load(),
		Stale:     h.stale.Load(),
		Torn:      h.torn.Load(),
		Adopted:   h.adopted.Load(),
		Ignored:   h.ignored.Load(),
		Malformed: h.malformed.Load(),
	}
}

// Watch feeds announcements from mb into OnStructureMessage until ctx is
// done or the mailbox is closed.
func (h *Hub) Watch(ctx context.Context, mb *announce.Mailbox) error {
	for {
		msg, err := mb.Receive(ctx)
		if err != nil {
			if errors.Is(err, announce.ErrMailboxClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := h.OnStructureMessage(msg); err != nil && !errors.Is(err, ErrStaleSchema) {
			h.warn("structure message rejected", "sequence", msg.Sequence, "error", err)
		}
	}
}

// Run polls every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Poll()
		}
	}
}

// setFlag writes addr's flag on the current layout. Addresses outside the
// schema are recorded with index -1 and left for the next adoption.
func (h *Hub) setFlag(addr wire.Address, active bool) error {
	cur := h.current.Load()
	index := -1
	var version uint32
	if cur != nil {
		version = cur.schema.Version
		index = cur.schema.IndexOf(addr)
	}

	if index >= 0 {
		if err := cur.flags.SetSubscribed(index, active); err != nil {
			return err
		}
	}

	h.protocolLogger.Log(log.Event{
		Timestamp:     time.Now(),
		InstanceID:    h.instanceID,
		Role:          log.RoleConsumer,
		Layer:         log.LayerReceiver,
		Category:      log.CategorySubscription,
		SchemaVersion: version,
		Subscription: &log.SubscriptionEvent{
			Address: addr.String(),
			Index:   index,
			Active:  active,
		},
	})
	return nil
}

// noteOutcome captures frame outcomes when they change, so a stalled
// producer does not flood the capture with identical events.
func (h *Hub) noteOutcome(cur *binding, outcome log.FrameOutcome) {
	if outcome == h.lastOutcome {
		return
	}
	h.lastOutcome = outcome
	h.protocolLogger.Log(log.Event{
		Timestamp:     time.Now(),
		InstanceID:    h.instanceID,
		Role:          log.RoleConsumer,
		Layer:         log.LayerReceiver,
		Category:      log.CategoryFrame,
		SchemaVersion: cur.schema.Version,
		LayoutID:      cur.layout.ID().String(),
		Frame: &log.FrameEvent{
			Outcome: outcome,
			Version: cur.schema.Version,
			Size:    len(h.readBuf),
		},
	})
}

func (h *Hub) logStructure(action log.StructureAction, schema *wire.Schema, msg announce.Message, reason string) {
	event := log.Event{
		Timestamp:  time.Now(),
		InstanceID: h.instanceID,
		Role:       log.RoleConsumer,
		Layer:      log.LayerReceiver,
		Category:   log.CategoryStructure,
		Structure: &log.StructureEvent{
			Action:   action,
			Sequence: msg.Sequence,
			Reason:   reason,
		},
	}
	if schema != nil {
		event.SchemaVersion = schema.Version
		event.Structure.Version = schema.Version
		event.Structure.NumPackages = schema.Len()
	}
	if msg.Layout != nil {
		event.LayoutID = msg.Layout.ID().String()
		event.Structure.Capacity = msg.Layout.Capacity()
	}
	h.protocolLogger.Log(event)
}

func (h *Hub) logState(from, to State, reason string) {
	h.protocolLogger.Log(log.Event{
		Timestamp:  time.Now(),
		InstanceID: h.instanceID,
		Role:       log.RoleConsumer,
		Layer:      log.LayerReceiver,
		Category:   log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func zeroValues(s *wire.Schema) []wire.Value {
	values := make([]wire.Value, s.Len())
	for i, p := range s.Packages {
		values[i] = wire.Zero(p.Type)
	}
	return values
}

func (h *Hub) debugLog(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Hub) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
