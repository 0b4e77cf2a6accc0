package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livestream-protocol/livestream-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lslog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// channelEvents is a short producer/consumer exchange: publish, adopt, a torn
// read, a growth republish and a subscription flip.
func channelEvents() []log.Event {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: ts, InstanceID: "engine", Role: log.RoleProducer,
			Layer: log.LayerBroadcast, Category: log.CategoryStructure, SchemaVersion: 1, LayoutID: "a1b2c3d4",
			Structure: &log.StructureEvent{Action: log.StructurePublished, Version: 1, NumPackages: 3, Capacity: 96, Sequence: 1, Reason: "schema"},
		},
		{
			Timestamp: ts.Add(time.Millisecond), InstanceID: "ui", Role: log.RoleConsumer,
			Layer: log.LayerReceiver, Category: log.CategoryStructure, SchemaVersion: 1,
			Structure: &log.StructureEvent{Action: log.StructureAdopted, Version: 1, NumPackages: 3},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), InstanceID: "ui", Role: log.RoleConsumer,
			Layer: log.LayerReceiver, Category: log.CategoryState, SchemaVersion: 1,
			StateChange: &log.StateChangeEvent{OldState: "AWAITING_STRUCTURE", NewState: "SYNCED", Reason: "structure adopted"},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), InstanceID: "ui", Role: log.RoleConsumer,
			Layer: log.LayerReceiver, Category: log.CategorySubscription, SchemaVersion: 1,
			Subscription: &log.SubscriptionEvent{Address: "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b/2", Index: 2, Active: true},
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond), InstanceID: "ui", Role: log.RoleConsumer,
			Layer: log.LayerReceiver, Category: log.CategoryFrame, SchemaVersion: 1,
			Frame: &log.FrameEvent{Outcome: log.FrameTorn, Version: 1},
		},
		{
			Timestamp: ts.Add(5 * time.Millisecond), InstanceID: "engine", Role: log.RoleProducer,
			Layer: log.LayerBroadcast, Category: log.CategoryFrame, SchemaVersion: 1,
			Frame: &log.FrameEvent{Outcome: log.FrameOverflow, Version: 1, Size: 140},
		},
		{
			Timestamp: ts.Add(6 * time.Millisecond), InstanceID: "engine", Role: log.RoleProducer,
			Layer: log.LayerBroadcast, Category: log.CategoryStructure, SchemaVersion: 2, LayoutID: "e5f6a7b8",
			Structure: &log.StructureEvent{Action: log.StructurePublished, Version: 2, NumPackages: 3, Capacity: 280, Sequence: 2, Reason: "grow"},
		},
		{
			Timestamp: ts.Add(7 * time.Millisecond), InstanceID: "ui", Role: log.RoleConsumer,
			Layer: log.LayerReceiver, Category: log.CategoryError, SchemaVersion: 1,
			Error: &log.ErrorEventData{Layer: log.LayerReceiver, Message: "structure rejected", Context: "missing layout"},
		},
	}
}

func TestViewFormatsEveryEventKind(t *testing.T) {
	path := createTestLogFile(t, channelEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.000000Z [engine] PRODUCER BROADCAST Structure PUBLISHED v1",
		"Layout: a1b2c3d4",
		"Capacity: 96",
		"Reason: grow",
		"Structure ADOPTED",
		"AWAITING_STRUCTURE -> SYNCED",
		"Subscribe",
		"6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b/2 [2]",
		"Frame TORN",
		"Size: 140 bytes",
		"Message: structure rejected",
		"Context: missing layout",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestViewFilters(t *testing.T) {
	path := createTestLogFile(t, channelEvents())

	producer := log.RoleProducer
	structure := log.CategoryStructure
	v2 := uint32(2)

	tests := []struct {
		name   string
		filter ViewFilter
		want   int
	}{
		{"all", ViewFilter{}, 8},
		{"instance", ViewFilter{Instance: "ui"}, 5},
		{"role", ViewFilter{Role: &producer}, 3},
		{"category", ViewFilter{Category: &structure}, 3},
		{"version", ViewFilter{Version: &v2}, 1},
		{"combined", ViewFilter{Role: &producer, Category: &structure}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RunView(path, tt.filter, &buf); err != nil {
				t.Fatalf("RunView failed: %v", err)
			}
			got := strings.Count(buf.String(), "2026-03-02T")
			if got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.lslog"), ViewFilter{}, io.Discard)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if r, err := ParseRoleFlag("Consumer"); err != nil || r != log.RoleConsumer {
		t.Errorf("ParseRoleFlag(Consumer) = %v, %v", r, err)
	}
	if _, err := ParseRoleFlag("server"); err == nil {
		t.Error("expected error for unknown role")
	}
	if l, err := ParseLayerFlag("LAYOUT"); err != nil || l != log.LayerLayout {
		t.Errorf("ParseLayerFlag(LAYOUT) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("transport"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if c, err := ParseCategoryFlag("subscription"); err != nil || c != log.CategorySubscription {
		t.Errorf("ParseCategoryFlag(subscription) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestStatsSummarizesChannel(t *testing.T) {
	path := createTestLogFile(t, channelEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 8",
		"PRODUCER:",
		"CONSUMER:",
		"STRUCTURE:",
		"TORN:",
		"OVERFLOW:",
		"Instances: 2",
		"[engine] PRODUCER, 3 events",
		"last version 2",
		"Published: 2 (grow: 1)",
		"[ui] CONSUMER, 5 events",
		"Adopted: 1, ignored: 0",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Time Range") {
		t.Error("empty capture should not print a time range")
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}

	var first log.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.InstanceID != "engine" || first.Structure == nil || first.Structure.Capacity != 96 {
		t.Errorf("unexpected first event: %+v", first)
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 9 {
		t.Fatalf("got %d records, want 9 (header + 8)", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header = %v", records[0])
	}
	row := records[7]
	if row[1] != "engine" || row[5] != "2" || row[6] != "e5f6a7b8" || row[7] != "Structure PUBLISHED" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFilterWritesMatchingEvents(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	out := filepath.Join(t.TempDir(), "filtered.lslog")

	n, err := RunFilter(path, FilterOptions{Output: out, Role: "consumer", Category: "frame"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("filtered %d events, want 1", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("open filtered file: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Frame == nil || event.Frame.Outcome != log.FrameTorn {
		t.Errorf("unexpected event: %+v", event)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFilterTimeWindow(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	out := filepath.Join(t.TempDir(), "window.lslog")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: "2026-03-02T09:30:00Z",
		TimeEnd:   "2026-03-02T09:30:01Z",
		Version:   "1",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 7 {
		t.Errorf("filtered %d events, want 7", n)
	}
}

func TestFilterRejectsBadOptions(t *testing.T) {
	path := createTestLogFile(t, channelEvents())
	out := filepath.Join(t.TempDir(), "bad.lslog")

	for _, opts := range []FilterOptions{
		{Output: out, Role: "server"},
		{Output: out, Layer: "transport"},
		{Output: out, Category: "message"},
		{Output: out, Version: "latest"},
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
	} {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
