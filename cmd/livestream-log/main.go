// Command livestream-log is a tool for viewing and analyzing LiveStream
// protocol capture files.
//
// Capture files are created by livestream-demo with the -capture flag, or by
// any program that attaches a log.FileLogger to a Broadcaster or Hub.
//
// Usage:
//
//	livestream-log <command> [flags] <file.lslog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	livestream-log view channel.lslog
//
//	# View only schema announcements and adoptions
//	livestream-log view --category structure channel.lslog
//
//	# View what the UI hub saw
//	livestream-log view --instance ui channel.lslog
//
//	# Export to JSONL
//	livestream-log export --format jsonl channel.lslog
//
//	# Keep only version 3 and save to new file
//	livestream-log filter --version 3 -o v3.lslog channel.lslog
//
//	# Show statistics
//	livestream-log stats channel.lslog
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/livestream-protocol/livestream-go/cmd/livestream-log/commands"
)

const usage = `livestream-log - LiveStream Capture Analyzer

Usage:
  livestream-log <command> [flags] <file.lslog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "livestream-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `livestream-log view - View capture file in human-readable format

Usage:
  livestream-log view [flags] <file.lslog>

Flags:
`)
		fs.PrintDefaults()
	}

	instance := fs.String("instance", "", "Filter by instance ID")
	role := fs.String("role", "", "Filter by role (producer, consumer)")
	layer := fs.String("layer", "", "Filter by layer (wire, layout, broadcast, receiver)")
	category := fs.String("category", "", "Filter by category (structure, frame, subscription, state, error)")
	version := fs.String("version", "", "Filter by schema version")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{Instance: *instance}

	if *role != "" {
		r, err := commands.ParseRoleFlag(*role)
		if err != nil {
			fail(err)
		}
		filter.Role = &r
	}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if *version != "" {
		v, err := strconv.ParseUint(*version, 10, 32)
		if err != nil {
			fail(fmt.Errorf("invalid version: %w", err))
		}
		ver := uint32(v)
		filter.Version = &ver
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `livestream-log export - Export capture file to JSON or CSV format

Usage:
  livestream-log export [flags] <file.lslog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `livestream-log filter - Filter capture file and write to new file

Usage:
  livestream-log filter [flags] <file.lslog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	instance := fs.String("instance", "", "Filter by instance ID")
	role := fs.String("role", "", "Filter by role (producer, consumer)")
	layer := fs.String("layer", "", "Filter by layer (wire, layout, broadcast, receiver)")
	category := fs.String("category", "", "Filter by category (structure, frame, subscription, state, error)")
	version := fs.String("version", "", "Filter by schema version")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		Instance:  *instance,
		Role:      *role,
		Layer:     *layer,
		Category:  *category,
		Version:   *version,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	n, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `livestream-log stats - Show statistics about the capture file

Usage:
  livestream-log stats <file.lslog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
