// Command livestream-demo runs a LiveStream channel inside one process.
//
// A synthetic audio engine publishes meters, a spectrum, parameter mirrors,
// MIDI notes and a status blob through a Broadcaster; a receiver Hub polls
// the shared block on the UI cadence. The two only meet through the shared
// block and the structure side channel.
//
// Usage:
//
//	livestream-demo [flags]
//
// Flags:
//
//	-config string        Channel definition file (YAML)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-capture string       Write protocol events to this file (CBOR)
//	-interactive          Start the interactive console
//	-duration duration    Stop after this long (0 runs until interrupted)
//	-report duration      Status report interval in non-interactive mode (default 1s)
//
// Examples:
//
//	# Run the built-in master bus and print a report every second
//	livestream-demo
//
//	# Capture protocol events for livestream-log
//	livestream-demo -capture /tmp/channel.lslog -duration 10s
//
//	# Subscribe and edit the schema by hand
//	livestream-demo -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/livestream-protocol/livestream-go/cmd/livestream-demo/interactive"
	"github.com/livestream-protocol/livestream-go/pkg/announce"
	"github.com/livestream-protocol/livestream-go/pkg/broadcast"
	"github.com/livestream-protocol/livestream-go/pkg/config"
	"github.com/livestream-protocol/livestream-go/pkg/log"
	"github.com/livestream-protocol/livestream-go/pkg/receiver"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Options holds the command line settings.
type Options struct {
	ConfigFile     string
	LogLevel       string
	CaptureFile    string
	Interactive    bool
	Duration       time.Duration
	ReportInterval time.Duration
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Channel definition file (YAML)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.CaptureFile, "capture", "", "Write protocol events to this file (CBOR)")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the interactive console")
	flag.DurationVar(&opts.Duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	flag.DurationVar(&opts.ReportInterval, "report", time.Second, "Status report interval in non-interactive mode")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "livestream-demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}
	policy, err := cfg.PlaceholderPolicy()
	if err != nil {
		return err
	}

	var console *interactive.Console
	var logOut io.Writer = os.Stderr
	if opts.Interactive {
		console, err = interactive.New()
		if err != nil {
			return err
		}
		logOut = console.Stderr()
	}

	logger, err := newLogger(opts.LogLevel, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	protocolLogger, closeCapture, err := newProtocolLogger(opts.CaptureFile, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Duration)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := announce.NewBus()
	defer bus.Close()

	engine := NewEngine(schema)
	bc := broadcast.New(bus, broadcast.Config{
		InstanceID:     "engine",
		Hints:          cfg.Hints(),
		Placeholder:    policy,
		Logger:         logger.With("component", "broadcast"),
		ProtocolLogger: protocolLogger,
	})
	hub := receiver.NewHub(receiver.Config{
		InstanceID:     "ui",
		Logger:         logger.With("component", "receiver"),
		ProtocolLogger: protocolLogger,
	})
	mailbox, err := bus.Subscribe(hub.InstanceID())
	if err != nil {
		return err
	}

	if console == nil {
		// Without a console nobody picks packages, so listen to all of them.
		for _, p := range schema.Packages {
			if _, err := hub.Subscribe(p.Address, func(wire.Address, wire.Value) {}); err != nil {
				return fmt.Errorf("subscribe %s: %w", p.Address, err)
			}
		}
	}

	slog.Info("livestream demo starting",
		"packages", schema.Len(),
		"tick", cfg.TickInterval,
		"poll", cfg.PollInterval,
		"placeholder", policy,
		"capture", opts.CaptureFile,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bc.Run(ctx, engine, cfg.TickInterval)
	})
	g.Go(func() error {
		return hub.Watch(ctx, mailbox)
	})
	g.Go(func() error {
		return hub.Run(ctx, cfg.PollInterval)
	})

	if console != nil {
		console.Attach(interactive.Session{
			Hub:         hub,
			Broadcaster: bc,
			Engine:      engine,
			Names:       cfg,
		})
		g.Go(func() error {
			console.Run(ctx, cancel)
			return nil
		})
	} else {
		g.Go(func() error {
			report(ctx, bc, hub, engine, cfg.Names(), opts.ReportInterval)
			return nil
		})
	}

	err = g.Wait()
	hub.Close()

	bs, hs := bc.Stats(), hub.Stats()
	slog.Info("livestream demo stopped",
		"version", bc.Version(),
		"ticks", bs.Ticks,
		"computed", bs.Computed,
		"skipped", bs.Skipped,
		"growths", bs.Growths,
		"accepted", hs.Accepted,
		"stale", hs.Stale,
		"torn", hs.Torn,
	)
	return err
}

// newLogger builds a text slog logger at the named level.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// newProtocolLogger wires protocol events to the capture file and, at debug
// level, to the operational log.
func newProtocolLogger(capture string, logger *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if capture != "" {
		fl, err := log.NewFileLogger(capture)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				slog.Warn("closing capture file", "error", err)
			}
			if n := fl.Dropped(); n > 0 {
				slog.Warn("capture dropped events", "count", n)
			}
		}
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, log.NewSlogAdapter(logger.With("component", "protocol")))
	}

	if len(loggers) == 0 {
		return log.NoopLogger{}, closeFn, nil
	}
	return log.NewMultiLogger(loggers...), closeFn, nil
}

// report logs channel health and the latest values every interval.
func report(ctx context.Context, bc *broadcast.Broadcaster, hub *receiver.Hub, engine *Engine, names map[wire.Address]string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bs, hs := bc.Stats(), hub.Stats()
			slog.Info("channel",
				"state", hub.State(),
				"version", hub.Version(),
				"computed", engine.Computed(),
				"skipped", bs.Skipped,
				"accepted", hs.Accepted,
				"stale", hs.Stale,
				"torn", hs.Torn,
			)

			s := hub.Schema()
			if s == nil {
				continue
			}
			for _, p := range s.Packages {
				v, ok := hub.Latest(p.Address)
				if !ok {
					continue
				}
				name := names[p.Address]
				if name == "" {
					name = p.Address.String()
				}
				slog.Debug("value", "package", name, "type", p.Type, "value", v.String())
			}
		}
	}
}
