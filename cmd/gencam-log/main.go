// Command gencam-log is a tool for viewing and analyzing acquisition
// event log files.
//
// Log files are created by attaching a log.FileLogger to a camera
// session as its event logger.
//
// Usage:
//
//	gencam-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	gencam-log view session.clog
//
//	# View only frame deliveries
//	gencam-log view --category frame session.clog
//
//	# Export to JSONL
//	gencam-log export --format jsonl session.clog
//
//	# Filter by camera and save to new file
//	gencam-log filter --camera-id abc12345 -o filtered.clog session.clog
//
//	# Show statistics
//	gencam-log stats session.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gencam-project/gencam-go/cmd/gencam-log/commands"
)

const usage = `gencam-log - Acquisition Event Log Analyzer

Usage:
  gencam-log <command> [flags] <file.clog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "gencam-log <command> -help" for more information about a command.
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

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gencam-log view - View log file in human-readable format

Usage:
  gencam-log view [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	cameraID := fs.String("camera-id", "", "Filter by camera session ID")
	category := fs.String("category", "", "Filter by category (state, frame, feature, error)")
	feature := fs.String("feature", "", "Filter feature events by name")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.ViewOptions{
		CameraID:    *cameraID,
		FeatureName: *feature,
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.Category = &c
	}

	if err := commands.RunView(fs.Arg(0), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gencam-log export - Export log file to JSONL or CSV format

Usage:
  gencam-log export [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gencam-log filter - Filter log file and write to new file

Usage:
  gencam-log filter [flags] <file.clog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "filtered.clog", "Output file")
	cameraID := fs.String("camera-id", "", "Filter by camera session ID")
	category := fs.String("category", "", "Filter by category (state, frame, feature, error)")
	feature := fs.String("feature", "", "Filter feature events by name")
	timeStart := fs.String("time-start", "", "Events at or after this RFC3339 time")
	timeEnd := fs.String("time-end", "", "Events before this RFC3339 time")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:      *output,
		CameraID:    *cameraID,
		Category:    *category,
		FeatureName: *feature,
		TimeStart:   *timeStart,
		TimeEnd:     *timeEnd,
	}
	if err := commands.RunFilter(fs.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gencam-log stats - Show statistics about the log file

Usage:
  gencam-log stats <file.clog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
