package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/livestream-protocol/livestream-go/pkg/broadcast"
	"github.com/livestream-protocol/livestream-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByRole     map[log.Role]int
	EventsByCategory map[log.Category]int
	FrameOutcomes    map[log.FrameOutcome]int
	Instances        map[string]*InstanceStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// InstanceStats holds statistics for a single broadcaster or hub.
type InstanceStats struct {
	Role        log.Role
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Published   int
	Adopted     int
	Ignored     int
	Growths     int
	LastVersion uint32
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByRole:     make(map[log.Role]int),
		EventsByCategory: make(map[log.Category]int),
		FrameOutcomes:    make(map[log.FrameOutcome]int),
		Instances:        make(map[string]*InstanceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByRole[event.Role]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	inst, ok := s.Instances[event.InstanceID]
	if !ok {
		inst = &InstanceStats{
			Role:      event.Role,
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Instances[event.InstanceID] = inst
	}
	inst.Events++
	if event.Timestamp.After(inst.LastSeen) {
		inst.LastSeen = event.Timestamp
	}
	if event.SchemaVersion > inst.LastVersion {
		inst.LastVersion = event.SchemaVersion
	}

	if st := event.Structure; st != nil {
		switch st.Action {
		case log.StructurePublished:
			inst.Published++
			if st.Reason == broadcast.ReasonGrow {
				inst.Growths++
			}
		case log.StructureAdopted:
			inst.Adopted++
		case log.StructureIgnored, log.StructureMalformed:
			inst.Ignored++
		}
	}
	if event.Frame != nil {
		s.FrameOutcomes[event.Frame.Outcome]++
	}
	if event.Error != nil {
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== LiveStream Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Role:")
	for _, role := range []log.Role{log.RoleProducer, log.RoleConsumer} {
		if count := stats.EventsByRole[role]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", role.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryStructure, log.CategoryFrame, log.CategorySubscription, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.FrameOutcomes) > 0 {
		fmt.Fprintln(w, "Frame Outcomes:")
		for _, o := range []log.FrameOutcome{log.FrameAccepted, log.FrameStale, log.FrameTorn, log.FrameOverflow} {
			if count := stats.FrameOutcomes[o]; count > 0 {
				fmt.Fprintf(w, "  %-14s %d\n", o.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Instances: %d\n", len(stats.Instances))
	if len(stats.Instances) > 0 {
		type instInfo struct {
			id    string
			stats *InstanceStats
		}
		insts := make([]instInfo, 0, len(stats.Instances))
		for id, is := range stats.Instances {
			insts = append(insts, instInfo{id, is})
		}
		sort.Slice(insts, func(i, j int) bool {
			if insts[i].stats.FirstSeen.Equal(insts[j].stats.FirstSeen) {
				return insts[i].id < insts[j].id
			}
			return insts[i].stats.FirstSeen.Before(insts[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, in := range insts {
			duration := in.stats.LastSeen.Sub(in.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s, %d events, duration %s, last version %d\n",
				in.id, in.stats.Role, in.stats.Events, duration, in.stats.LastVersion)
			if in.stats.Published > 0 {
				fmt.Fprintf(w, "           Published: %d (grow: %d)\n", in.stats.Published, in.stats.Growths)
			}
			if in.stats.Adopted > 0 || in.stats.Ignored > 0 {
				fmt.Fprintf(w, "           Adopted: %d, ignored: %d\n", in.stats.Adopted, in.stats.Ignored)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
