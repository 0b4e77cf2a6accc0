package livestream_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/livestream-protocol/livestream-go/pkg/announce"
	"github.com/livestream-protocol/livestream-go/pkg/broadcast"
	"github.com/livestream-protocol/livestream-go/pkg/layout"
	"github.com/livestream-protocol/livestream-go/pkg/receiver"
	"github.com/livestream-protocol/livestream-go/pkg/subscription"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

var entity = uuid.MustParse("0b7e4c1d-9a2f-4d3e-8c5b-6a7f8e9d0c1b")

func addr(slot uint32) wire.Address {
	return wire.Address{Entity: entity, Slot: slot}
}

// rampSource produces values that let a consumer detect torn or reordered
// frames: the level only rises and every spectrum bin of one frame holds the
// same number. The spectrum grows until the initial block is too small.
type rampSource struct {
	schema atomic.Pointer[wire.Schema]
	level  atomic.Int32
	bins   atomic.Int32
}

func newRampSource(s *wire.Schema) *rampSource {
	src := &rampSource{}
	src.schema.Store(s)
	return src
}

func (r *rampSource) CurrentSchema() *wire.Schema {
	return r.schema.Load()
}

func (r *rampSource) ValueFor(a wire.Address) wire.Value {
	switch a.Slot {
	case 0:
		return wire.FloatValue(float32(r.level.Add(1)))
	case 1:
		n := r.bins.Add(1)
		spectrum := make([]float32, min(1+int(n)/4, 128))
		for i := range spectrum {
			spectrum[i] = float32(n)
		}
		return wire.FloatArrayValue(spectrum)
	case 2:
		return wire.IntValue(7)
	default:
		return wire.Value{}
	}
}

func baseSchema() *wire.Schema {
	return wire.MustSchema(0,
		wire.Package{Address: addr(0), Type: wire.TypeFloat},
		wire.Package{Address: addr(1), Type: wire.TypeFloatArray},
	)
}

func extendedSchema() *wire.Schema {
	return wire.MustSchema(0,
		wire.Package{Address: addr(0), Type: wire.TypeFloat},
		wire.Package{Address: addr(1), Type: wire.TypeFloatArray},
		wire.Package{Address: addr(2), Type: wire.TypeInteger},
	)
}

// TestE2E_ConcurrentChannel runs producer and consumer on their own
// goroutines through growth and a schema change and checks that every value
// the consumer sees came from one complete frame. It runs with the default
// zero placeholder, so a listened package that briefly went uncomputed
// across a republish would show up as a regression.
func TestE2E_ConcurrentChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bus := announce.NewBus()
	defer bus.Close()

	src := newRampSource(baseSchema())
	bc := broadcast.New(bus, broadcast.Config{
		InstanceID: "engine",
		Hints:      layout.Hints{ArrayHint: 1, BytesHint: 1, Headroom: 1},
	})
	hub := receiver.NewHub(receiver.Config{InstanceID: "ui"})
	mb, err := bus.Subscribe(hub.InstanceID())
	require.NoError(t, err)

	var (
		lastLevel    atomic.Int64
		levelUpdates atomic.Int64
		regressions  atomic.Int64
		lastBin      atomic.Int64
		torn         atomic.Int64
		gain         atomic.Int64
	)

	_, err = hub.Subscribe(addr(0), func(_ wire.Address, v wire.Value) {
		level := int64(v.Float)
		if level < lastLevel.Load() {
			regressions.Add(1)
		}
		lastLevel.Store(level)
		levelUpdates.Add(1)
	})
	require.NoError(t, err)

	_, err = hub.Subscribe(addr(1), func(_ wire.Address, v wire.Value) {
		if len(v.Floats) == 0 {
			return
		}
		first := v.Floats[0]
		for _, f := range v.Floats {
			if f != first {
				torn.Add(1)
				return
			}
		}
		if int64(first) < lastBin.Load() {
			regressions.Add(1)
		}
		lastBin.Store(int64(first))
	})
	require.NoError(t, err)

	// Not in the schema yet; raised once the extended schema is adopted.
	_, err = hub.Subscribe(addr(2), func(_ wire.Address, v wire.Value) {
		gain.Store(int64(v.Int))
	})
	require.NoError(t, err)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bc.Run(gctx, src, time.Millisecond) })
	g.Go(func() error { return hub.Watch(gctx, mb) })
	g.Go(func() error { return hub.Run(gctx, time.Millisecond) })

	require.Eventually(t, func() bool {
		return bc.Stats().Growths > 0 && levelUpdates.Load() > 50 && lastBin.Load() > 400
	}, 20*time.Second, 5*time.Millisecond, "spectrum never outgrew the initial block")

	src.schema.Store(extendedSchema())

	require.Eventually(t, func() bool {
		return gain.Load() == 7 && hub.Version() == bc.Version()
	}, 20*time.Second, 5*time.Millisecond, "extended schema never reached the consumer")

	v, ok := hub.Latest(addr(1))
	require.True(t, ok)
	assert.Greater(t, len(v.Floats), 1)

	cancel()
	require.NoError(t, g.Wait())

	assert.Zero(t, torn.Load(), "spectrum bins from different frames")
	assert.Zero(t, regressions.Load(), "values went backwards")

	bs, hs := bc.Stats(), hub.Stats()
	assert.GreaterOrEqual(t, bs.SchemaChanges, uint64(3))
	assert.GreaterOrEqual(t, hs.Adopted, uint64(2))
	assert.Zero(t, hs.Malformed)
	assert.Zero(t, bs.TypeMismatches)
	assert.Zero(t, bs.WriteErrors)
	assert.Equal(t, receiver.StateSynced, hub.State())
}

// adoptLatest hands the newest announcement in mb to hub.
func adoptLatest(t *testing.T, hub *receiver.Hub, mb *announce.Mailbox) {
	t.Helper()
	msg, ok := mb.TryReceive()
	require.True(t, ok, "no announcement pending")
	require.NoError(t, hub.OnStructureMessage(msg))
}

// TestE2E_LateConsumer attaches a second consumer after the producer has
// already changed its schema. It adopts the current version directly, sees
// the value the first consumer keeps computed, and shares its flag.
func TestE2E_LateConsumer(t *testing.T) {
	bus := announce.NewBus()
	defer bus.Close()

	src := newRampSource(baseSchema())
	bc := broadcast.New(bus, broadcast.DefaultConfig())

	early := receiver.NewHub(receiver.Config{InstanceID: "early"})
	mbEarly, err := bus.Subscribe(early.InstanceID())
	require.NoError(t, err)
	_, err = early.Subscribe(addr(2), func(wire.Address, wire.Value) {})
	require.NoError(t, err)

	require.NoError(t, bc.Sync(src))
	adoptLatest(t, early, mbEarly)
	require.NoError(t, bc.Tick(src))

	src.schema.Store(extendedSchema())
	require.NoError(t, bc.Sync(src))
	adoptLatest(t, early, mbEarly)
	require.NoError(t, bc.Tick(src))
	require.Equal(t, uint32(2), bc.Version())
	require.Equal(t, uint64(1), bc.Stats().Computed)

	late := receiver.NewHub(receiver.Config{InstanceID: "late"})
	mbLate, err := bus.Subscribe(late.InstanceID())
	require.NoError(t, err)

	var got []int32
	_, err = late.Subscribe(addr(2), func(_ wire.Address, v wire.Value) {
		got = append(got, v.Int)
	})
	require.NoError(t, err)

	adoptLatest(t, late, mbLate)
	assert.Equal(t, uint32(2), late.Version())
	assert.Equal(t, receiver.StateSynced, late.State())

	require.True(t, late.Poll())
	require.NoError(t, bc.Tick(src))
	require.True(t, late.Poll())

	assert.Equal(t, []int32{7, 7}, got)
	assert.Equal(t, uint64(2), bc.Stats().Computed, "two consumers, one computation per tick")

	_, l := bc.Current()
	flags := subscription.NewFlagTable(l.Flags())
	assert.Equal(t, 2, flags.Consumers(2))

	early.Close()
	assert.True(t, flags.IsSubscribed(2), "late consumer still listens")
	late.Close()
	assert.False(t, flags.IsSubscribed(2))
}
