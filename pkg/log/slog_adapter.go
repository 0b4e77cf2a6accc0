package log

import (
	"context"
	"log/slog"
)

// SlogAdapter prints protocol events through an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("instance", event.InstanceID),
		slog.String("role", event.Role.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
		slog.Uint64("schema_version", uint64(event.SchemaVersion)),
	}
	if event.LayoutID != "" {
		attrs = append(attrs, slog.String("layout", event.LayoutID))
	}

	switch {
	case event.Structure != nil:
		s := event.Structure
		attrs = append(attrs,
			slog.String("action", s.Action.String()),
			slog.Uint64("version", uint64(s.Version)),
			slog.Int("packages", s.NumPackages),
		)
		if s.Capacity > 0 {
			attrs = append(attrs, slog.Int("capacity", s.Capacity))
		}
		if s.Reason != "" {
			attrs = append(attrs, slog.String("reason", s.Reason))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("outcome", event.Frame.Outcome.String()),
			slog.Uint64("frame_version", uint64(event.Frame.Version)),
		)
		if event.Frame.Size > 0 {
			attrs = append(attrs, slog.Int("size", event.Frame.Size))
		}
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("address", event.Subscription.Address),
			slog.Int("index", event.Subscription.Index),
			slog.Bool("active", event.Subscription.Active),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "livestream", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
