// Package commands implements the livestream-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/livestream-protocol/livestream-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Instance string
	Role     *log.Role
	Layer    *log.Layer
	Category *log.Category
	Version  *uint32
}

func (f ViewFilter) toLogFilter() log.Filter {
	return log.Filter{
		InstanceID:    f.Instance,
		Role:          f.Role,
		Layer:         f.Layer,
		Category:      f.Category,
		SchemaVersion: f.Version,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [instance] ROLE LAYER Type v<version>
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	fmt.Fprintf(w, "%s [%s] %-8s %-9s %s", ts, event.InstanceID, event.Role, event.Layer, typeLabel(event))
	if event.SchemaVersion != 0 {
		fmt.Fprintf(w, " v%d", event.SchemaVersion)
	}
	fmt.Fprintln(w)

	if event.LayoutID != "" {
		fmt.Fprintf(w, "  Layout: %s\n", event.LayoutID)
	}

	switch {
	case event.Structure != nil:
		formatStructureDetails(w, event.Structure)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// typeLabel names the payload an event carries.
func typeLabel(event log.Event) string {
	switch {
	case event.Structure != nil:
		return "Structure " + event.Structure.Action.String()
	case event.Frame != nil:
		return "Frame " + event.Frame.Outcome.String()
	case event.Subscription != nil:
		if event.Subscription.Active {
			return "Subscribe"
		}
		return "Unsubscribe"
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

func formatStructureDetails(w io.Writer, s *log.StructureEvent) {
	fmt.Fprintf(w, "  Version: %d  Packages: %d", s.Version, s.NumPackages)
	if s.Capacity > 0 {
		fmt.Fprintf(w, "  Capacity: %d", s.Capacity)
	}
	fmt.Fprintln(w)
	if s.Sequence > 0 {
		fmt.Fprintf(w, "  Sequence: %d\n", s.Sequence)
	}
	if s.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", s.Reason)
	}
}

func formatFrameDetails(w io.Writer, f *log.FrameEvent) {
	fmt.Fprintf(w, "  Version: %d", f.Version)
	if f.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes", f.Size)
	}
	fmt.Fprintln(w)
}

func formatSubscriptionDetails(w io.Writer, s *log.SubscriptionEvent) {
	if s.Index < 0 {
		fmt.Fprintf(w, "  Package: %s (not in schema)\n", s.Address)
		return
	}
	fmt.Fprintf(w, "  Package: %s [%d]\n", s.Address, s.Index)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseRoleFlag parses a role string from command-line flag (case-insensitive).
func ParseRoleFlag(s string) (log.Role, error) {
	switch strings.ToLower(s) {
	case "producer":
		return log.RoleProducer, nil
	case "consumer":
		return log.RoleConsumer, nil
	default:
		return 0, fmt.Errorf("invalid role: %s (must be producer or consumer)", s)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "wire":
		return log.LayerWire, nil
	case "layout":
		return log.LayerLayout, nil
	case "broadcast":
		return log.LayerBroadcast, nil
	case "receiver":
		return log.LayerReceiver, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be wire, layout, broadcast, or receiver)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "structure":
		return log.CategoryStructure, nil
	case "frame":
		return log.CategoryFrame, nil
	case "subscription":
		return log.CategorySubscription, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be structure, frame, subscription, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.toLogFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
