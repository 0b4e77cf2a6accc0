// Package log provides structured protocol capture for LiveStream.
//
// It is separate from operational logging (slog). Protocol capture records
// the events that explain a channel's behaviour after the fact: schema
// announcements and adoptions, layout reallocations, rejected Data Frames,
// subscription flag flips, and hub state changes.
//
// # Basic Usage
//
//	// Development: print events through slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Capture to a CBOR file for livestream-log
//	fl, _ := log.NewFileLogger("/tmp/ui.lslog")
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Real-Time Safety
//
// The producer never captures per-tick events. Only schema changes, growth
// and errors are logged on the producer side, so a slow Logger cannot stall
// the audio thread in steady state.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded Event values with integer keys.
// The livestream-log command views, filters and summarizes them.
package log
