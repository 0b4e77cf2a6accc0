// Package interactive provides the interactive command-line interface
// for livestream-demo.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/livestream-protocol/livestream-go/pkg/broadcast"
	"github.com/livestream-protocol/livestream-go/pkg/receiver"
	"github.com/livestream-protocol/livestream-go/pkg/subscription"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Engine is the part of the simulated audio engine the console edits.
type Engine interface {
	CurrentSchema() *wire.Schema
	AddPackage(p wire.Package) error
	RemovePackage(addr wire.Address) error
	Computed() uint64
}

// Names resolves user references to addresses and back.
type Names interface {
	Resolve(ref string) (wire.Address, error)
	Names() map[wire.Address]string
}

// Session is everything the console operates on.
type Session struct {
	Hub         *receiver.Hub
	Broadcaster *broadcast.Broadcaster
	Engine      Engine
	Names       Names
}

// watch is one console subscription.
type watch struct {
	id      subscription.ListenerID
	updates atomic.Uint64
}

// Console handles interactive mode for livestream-demo.
type Console struct {
	rl  *readline.Instance
	out io.Writer

	session Session

	mu      sync.Mutex
	watches map[wire.Address]*watch
}

// New creates a console reading from the terminal. Attach must be called
// before Run.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "livestream> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		watches: make(map[wire.Address]*watch),
	}
}

// Attach binds the console to a running channel.
func (c *Console) Attach(s Session) {
	c.session = s
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	c.printHelp()

	// Closing readline unblocks Readline when the demo stops elsewhere.
	go func() {
		<-ctx.Done()
		_ = c.rl.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(line); quit {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It reports whether the user asked to quit.
func (c *Console) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "subscribe", "sub", "s":
		c.cmdSubscribe(args)

	case "unsubscribe", "unsub", "u":
		c.cmdUnsubscribe(args)

	case "watch", "w":
		c.cmdWatch()

	case "add":
		c.cmdAdd(args)

	case "remove", "rm":
		c.cmdRemove(args)

	case "schema":
		c.cmdSchema()

	case "stats":
		c.cmdStats()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
LiveStream Demo Commands:
  Consumer:
    subscribe <pkg>        - Listen to a package (raises its flag)
    unsubscribe <pkg>      - Stop listening (clears the flag)
    watch                  - Show latest values of subscribed packages

  Producer:
    add <pkg> <type>       - Add a package (float, float_array, integer, integer_array, byte_array)
    remove <pkg>           - Remove a package
    schema                 - Show the published schema

  General:
    stats                  - Show producer and consumer counters
    help                   - Show this help
    quit                   - Exit

  Package Format:
    entity/name from the config, e.g. master-bus/peak, or <uuid>/<slot>`)
}

func (c *Console) cmdSubscribe(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: subscribe <pkg>")
		return
	}
	addr, err := c.session.Names.Resolve(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.watches[addr]; ok {
		fmt.Fprintf(c.out, "Already subscribed to %s\n", c.name(addr))
		return
	}

	w := &watch{}
	id, err := c.session.Hub.Subscribe(addr, func(wire.Address, wire.Value) {
		w.updates.Add(1)
	})
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	w.id = id
	c.watches[addr] = w

	if c.session.Hub.Schema().Contains(addr) {
		fmt.Fprintf(c.out, "Subscribed to %s\n", c.name(addr))
	} else {
		fmt.Fprintf(c.out, "Subscribed to %s (not in schema yet)\n", c.name(addr))
	}
}

func (c *Console) cmdUnsubscribe(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: unsubscribe <pkg>")
		return
	}
	addr, err := c.session.Names.Resolve(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.watches[addr]
	if !ok {
		fmt.Fprintf(c.out, "Not subscribed to %s\n", c.name(addr))
		return
	}
	if err := c.session.Hub.Unsubscribe(addr, w.id); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	delete(c.watches, addr)
	fmt.Fprintf(c.out, "Unsubscribed from %s\n", c.name(addr))
}

func (c *Console) cmdWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.watches) == 0 {
		fmt.Fprintln(c.out, "No subscriptions.")
		return
	}

	names := make([]string, 0, len(c.watches))
	byName := make(map[string]wire.Address, len(c.watches))
	for addr := range c.watches {
		n := c.name(addr)
		names = append(names, n)
		byName[n] = addr
	}
	sort.Strings(names)

	for _, n := range names {
		addr := byName[n]
		w := c.watches[addr]
		v, ok := c.session.Hub.Latest(addr)
		if !ok {
			fmt.Fprintf(c.out, "  %-24s  (no value)  updates=%d\n", n, w.updates.Load())
			continue
		}
		fmt.Fprintf(c.out, "  %-24s  %-14s %s  updates=%d\n", n, v.Type, truncate(v.String(), 48), w.updates.Load())
	}
}

func (c *Console) cmdAdd(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: add <pkg> <type>")
		return
	}
	addr, err := c.session.Names.Resolve(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	t, err := wire.ParsePackageType(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := c.session.Engine.AddPackage(wire.Package{Address: addr, Type: t}); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Added %s (%s); announced on the next tick\n", c.name(addr), t)
}

func (c *Console) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: remove <pkg>")
		return
	}
	addr, err := c.session.Names.Resolve(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := c.session.Engine.RemovePackage(addr); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Removed %s; announced on the next tick\n", c.name(addr))
}

func (c *Console) cmdSchema() {
	s, l := c.session.Broadcaster.Current()
	if s == nil {
		fmt.Fprintln(c.out, "No schema published yet.")
		return
	}
	fmt.Fprintf(c.out, "Schema version %d, %s\n", s.Version, l)
	fmt.Fprintf(c.out, "Hub: %s (version %d)\n", c.session.Hub.State(), c.session.Hub.Version())

	for i, p := range s.Packages {
		marker := " "
		if c.session.Hub.Listening(p.Address) {
			marker = "*"
		}
		fmt.Fprintf(c.out, "  %s [%d] %-24s %s\n", marker, i, c.name(p.Address), p.Type)
	}
}

func (c *Console) cmdStats() {
	b := c.session.Broadcaster.Stats()
	h := c.session.Hub.Stats()

	fmt.Fprintln(c.out, "Producer:")
	fmt.Fprintf(c.out, "  ticks=%d computed=%d skipped=%d growths=%d schema-changes=%d write-errors=%d\n",
		b.Ticks, b.Computed, b.Skipped, b.Growths, b.SchemaChanges, b.WriteErrors)
	fmt.Fprintf(c.out, "  engine computations=%d\n", c.session.Engine.Computed())
	fmt.Fprintln(c.out, "Consumer:")
	fmt.Fprintf(c.out, "  polls=%d accepted=%d stale=%d torn=%d\n", h.Polls, h.Accepted, h.Stale, h.Torn)
	fmt.Fprintf(c.out, "  structures adopted=%d ignored=%d malformed=%d\n", h.Adopted, h.Ignored, h.Malformed)
}

func (c *Console) name(addr wire.Address) string {
	if n, ok := c.session.Names.Names()[addr]; ok {
		return n
	}
	return addr.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
