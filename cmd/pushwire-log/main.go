// Command pushwire-log is a tool for viewing and analyzing supervision
// event log files.
//
// Log files are created by pushwire-gateway (and pushwire-sim) with the
// -event-log flag.
//
// Usage:
//
//	pushwire-log <command> [flags] <file.pwlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	pushwire-log view gateway.pwlog
//
//	# View only connect attempts in the runtime phase
//	pushwire-log view -category attempt -phase runtime gateway.pwlog
//
//	# Export to JSONL
//	pushwire-log export gateway.pwlog
//
//	# Filter by account and save to a new file
//	pushwire-log filter -account acct-42 -o filtered.pwlog gateway.pwlog
//
//	# Show statistics
//	pushwire-log stats gateway.pwlog
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pushwire/pushwire-go/pkg/log"
)

const usage = `pushwire-log - Supervision Event Log Analyzer

Usage:
  pushwire-log <command> [flags] <file.pwlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "pushwire-log <command> -help" for more information about a command.
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

// filterFlags registers the shared filter flags on fs and returns a
// builder that resolves them into a log.Filter after parsing.
func filterFlags(fs *flag.FlagSet) func() log.Filter {
	account := fs.String("account", "", "Filter by account ID")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	category := fs.String("category", "", "Filter by category (state, attempt, drop, error)")
	phase := fs.String("phase", "", "Filter attempts by phase (initial, runtime)")

	return func() log.Filter {
		var filter log.Filter
		filter.AccountID = *account
		filter.ConnectionID = *connID

		if *category != "" {
			c, err := parseCategory(*category)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			filter.Category = &c
		}
		if *phase != "" {
			p, err := parsePhase(*phase)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			filter.Phase = &p
		}
		return filter
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryStateChange, nil
	case "attempt":
		return log.CategoryAttempt, nil
	case "drop":
		return log.CategoryDrop, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (want state, attempt, drop, or error)", s)
	}
}

func parsePhase(s string) (log.Phase, error) {
	switch strings.ToLower(s) {
	case "initial":
		return log.PhaseInitial, nil
	case "runtime":
		return log.PhaseRuntime, nil
	default:
		return 0, fmt.Errorf("unknown phase %q (want initial or runtime)", s)
	}
}

func openReader(fs *flag.FlagSet, filter log.Filter) *log.Reader {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return reader
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	reader := openReader(fs, buildFilter())
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(formatEvent(event))
	}
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(e log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-7s account=%s", e.Timestamp.Format("15:04:05.000"), e.Category, e.AccountID)
	if e.ConnectionID != "" {
		fmt.Fprintf(&b, " conn=%s", e.ConnectionID)
	}

	switch {
	case e.StateChange != nil:
		fmt.Fprintf(&b, " %s -> %s", e.StateChange.Old, e.StateChange.New)
		if e.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", e.StateChange.Reason)
		}
	case e.Attempt != nil:
		fmt.Fprintf(&b, " phase=%s attempt=%d delay=%s", e.Attempt.Phase, e.Attempt.Number, e.Attempt.Delay)
		if e.Attempt.Error != "" {
			fmt.Fprintf(&b, " error=%q", e.Attempt.Error)
		} else {
			b.WriteString(" ok")
		}
	case e.Drop != nil:
		fmt.Fprintf(&b, " reason=%s attempts=%d successes=%d failures=%d",
			e.Drop.Reason, e.Drop.Attempts, e.Drop.Successes, e.Drop.Failures)
	case e.Error != nil:
		fmt.Fprintf(&b, " context=%s error=%q", e.Error.Context, e.Error.Message)
	}
	return b.String()
}

// exportedEvent is the JSONL shape for export.
type exportedEvent struct {
	Timestamp    string                `json:"timestamp"`
	AccountID    string                `json:"account_id"`
	ConnectionID string                `json:"connection_id,omitempty"`
	Category     string                `json:"category"`
	StateChange  *log.StateChangeEvent `json:"state_change,omitempty"`
	Attempt      *exportedAttempt      `json:"attempt,omitempty"`
	Drop         *log.DropEvent        `json:"drop,omitempty"`
	Error        *log.ErrorEventData   `json:"error,omitempty"`
}

type exportedAttempt struct {
	Phase  string `json:"phase"`
	Number int    `json:"number"`
	Delay  string `json:"delay,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	reader := openReader(fs, buildFilter())
	defer reader.Close()

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
			os.Exit(1)
		}

		exported := exportedEvent{
			Timestamp:    event.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00"),
			AccountID:    event.AccountID,
			ConnectionID: event.ConnectionID,
			Category:     event.Category.String(),
			StateChange:  event.StateChange,
			Drop:         event.Drop,
			Error:        event.Error,
		}
		if event.Attempt != nil {
			exported.Attempt = &exportedAttempt{
				Phase:  event.Attempt.Phase.String(),
				Number: event.Attempt.Number,
				Error:  event.Attempt.Error,
			}
			if event.Attempt.Delay > 0 {
				exported.Attempt.Delay = event.Attempt.Delay.String()
			}
		}

		if err := enc.Encode(exported); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSONL: %v\n", err)
			os.Exit(1)
		}
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	output := fs.String("o", "", "Output file (required)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -o output file required")
		fs.Usage()
		os.Exit(1)
	}

	reader := openReader(fs, buildFilter())
	defer reader.Close()

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	enc := log.NewEncoder(out)
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
			os.Exit(1)
		}
		if err := enc.Encode(event); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing event: %v\n", err)
			os.Exit(1)
		}
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	reader := openReader(fs, buildFilter())
	defer reader.Close()

	var (
		total      int
		byCategory = map[string]int{}
		byPhase    = map[string]int{}
		failed     int
		drops      int
	)

	events, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
		os.Exit(1)
	}

	for _, e := range events {
		total++
		byCategory[e.Category.String()]++
		if e.Attempt != nil {
			byPhase[e.Attempt.Phase.String()]++
			if e.Attempt.Error != "" {
				failed++
			}
		}
		if e.Drop != nil {
			drops++
		}
	}

	fmt.Printf("Events: %d\n", total)
	if total == 0 {
		return
	}

	first, last := events[0].Timestamp, events[len(events)-1].Timestamp
	fmt.Printf("Span:   %s .. %s (%s)\n",
		first.Format("2006-01-02 15:04:05"), last.Format("2006-01-02 15:04:05"), last.Sub(first))

	fmt.Println("\nBy category:")
	for _, c := range []string{"STATE", "ATTEMPT", "DROP", "ERROR"} {
		if n := byCategory[c]; n > 0 {
			fmt.Printf("  %-8s %d\n", c, n)
		}
	}

	if byPhase["INITIAL"] > 0 || byPhase["RUNTIME"] > 0 {
		fmt.Println("\nAttempts by phase:")
		for _, p := range []string{"INITIAL", "RUNTIME"} {
			if n := byPhase[p]; n > 0 {
				fmt.Printf("  %-8s %d\n", p, n)
			}
		}
		fmt.Printf("  failed   %d\n", failed)
	}

	fmt.Printf("\nDrops detected: %d\n", drops)
}
