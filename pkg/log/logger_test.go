package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{InstanceID: "one"})
	m.Log(Event{InstanceID: "two"})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Errorf("a=%d b=%d events, want 2 each", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
	NoopLogger{}.Log(Event{})
}

func TestSlogAdapterStructureEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		InstanceID:    "bc-1",
		Role:          RoleProducer,
		Layer:         LayerBroadcast,
		Category:      CategoryStructure,
		SchemaVersion: 2,
		Structure:     &StructureEvent{Action: StructurePublished, Version: 2, NumPackages: 4, Capacity: 128, Reason: "schema"},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}

	checks := map[string]any{
		"msg":      "livestream",
		"instance": "bc-1",
		"role":     "PRODUCER",
		"layer":    "BROADCAST",
		"action":   "PUBLISHED",
		"packages": float64(4),
		"capacity": float64(128),
		"reason":   "schema",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
}

func TestSlogAdapterBelowLevelIsSilent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	adapter.Log(Event{Category: CategoryFrame, Frame: &FrameEvent{Outcome: FrameTorn}})
	if buf.Len() != 0 {
		t.Errorf("debug event printed at info level: %s", buf.String())
	}
}
