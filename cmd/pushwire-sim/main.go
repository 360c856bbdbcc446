// Command pushwire-sim is an interactive console for exercising the
// connection supervisor against a simulated push client.
//
// Connect failures, silent drops, and abrupt socket closures can all be
// injected from the prompt, which makes the supervisor's backoff, grace
// window, and budget behavior directly observable.
//
// Usage:
//
//	pushwire-sim [flags]
//
// Flags:
//
//	-max-attempts int   Initial connect attempt budget (default 5)
//	-max-cycles int     Runtime reconnect cycle budget, 0 = unbounded
//	-initial-delay duration   First backoff delay (default 1s)
//	-max-delay duration       Backoff cap (default 60s)
//	-jitter float       Backoff jitter fraction (default 0.25)
//	-interval duration  Liveness check interval (default 5s)
//	-event-log string   Write supervision events to this CBOR log file
//
// Example session:
//
//	sim> connect
//	sim> fail connection refused
//	sim> drop
//	sim> state
//	sim> counters
//	sim> stop
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/pushwire/pushwire-go/internal/simclient"
	"github.com/pushwire/pushwire-go/pkg/connection"
	"github.com/pushwire/pushwire-go/pkg/log"
)

const help = `Commands:
  connect            Run the initial connect sequence
  fail [message]     Make every connect fail (default message: "connection refused")
  succeed            Make connects succeed again
  latency <dur>      Add artificial connect latency (e.g. 500ms)
  drop               Silent connection loss (periodic detection only)
  close [message]    Abrupt socket closure (close-event fast path)
  state              Show supervisor state and liveness
  counters           Show runtime reconnect counters
  stop               Stop the supervisor
  help               Show this help
  quit               Stop and exit
`

func main() {
	maxAttempts := flag.Int("max-attempts", 5, "Initial connect attempt budget")
	maxCycles := flag.Int("max-cycles", 0, "Runtime reconnect cycle budget, 0 = unbounded")
	initialDelay := flag.Duration("initial-delay", time.Second, "First backoff delay")
	maxDelay := flag.Duration("max-delay", 60*time.Second, "Backoff cap")
	jitter := flag.Float64("jitter", 0.25, "Backoff jitter fraction")
	interval := flag.Duration("interval", 5*time.Second, "Liveness check interval")
	eventLogPath := flag.String("event-log", "", "Write supervision events to this CBOR log file")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Route log output through readline so it does not clobber the prompt.
	logger := slog.New(slog.NewTextHandler(rl.Stdout(), &slog.HandlerOptions{Level: slog.LevelDebug}))

	var events log.Logger = log.NoopLogger{}
	if *eventLogPath != "" {
		fileLog, err := log.NewFileLogger(*eventLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open event log: %v\n", err)
			os.Exit(1)
		}
		defer fileLog.Close()
		events = fileLog
	}

	client := simclient.New()
	manager := connection.NewManager(client, "sim-account", connection.Config{
		MaxAttempts:        *maxAttempts,
		InitialDelay:       *initialDelay,
		MaxDelay:           *maxDelay,
		Jitter:             *jitter,
		MaxReconnectCycles: *maxCycles,
		CheckInterval:      *interval,
		OnStateChange: func(s connection.State, reason string) {
			if reason != "" {
				fmt.Fprintf(rl.Stdout(), "** state: %s (%s)\n", s, reason)
				return
			}
			fmt.Fprintf(rl.Stdout(), "** state: %s\n", s)
		},
		EventLog: events,
	}, logger)

	fmt.Print(help)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			break // EOF
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "connect":
			go func() {
				if err := manager.Connect(context.Background()); err != nil {
					fmt.Fprintf(rl.Stdout(), "connect: %v\n", err)
				}
			}()

		case "fail":
			msg := "connection refused"
			if len(args) > 0 {
				msg = strings.Join(args, " ")
			}
			client.FailAlways(errors.New(msg))
			fmt.Fprintln(rl.Stdout(), "connects will now fail")

		case "succeed":
			client.FailAlways(nil)
			fmt.Fprintln(rl.Stdout(), "connects will now succeed")

		case "latency":
			if len(args) != 1 {
				fmt.Fprintln(rl.Stdout(), "usage: latency <duration>")
				continue
			}
			d, err := time.ParseDuration(args[0])
			if err != nil {
				fmt.Fprintf(rl.Stdout(), "bad duration: %v\n", err)
				continue
			}
			client.SetLatency(d)

		case "drop":
			client.DropSilent()
			fmt.Fprintln(rl.Stdout(), "connection dropped silently")

		case "close":
			msg := "connection reset by peer"
			if len(args) > 0 {
				msg = strings.Join(args, " ")
			}
			client.DropAbrupt(errors.New(msg))
			fmt.Fprintln(rl.Stdout(), "close event emitted")

		case "state":
			fmt.Fprintf(rl.Stdout(), "state=%s connected=%v stopped=%v\n",
				manager.State(), manager.IsConnected(), manager.IsStopped())

		case "counters":
			c := manager.RuntimeCounters()
			fmt.Fprintf(rl.Stdout(), "attempts=%d successes=%d failures=%d (client connects=%d)\n",
				c.Attempts, c.Successes, c.Failures, client.ConnectCalls())

		case "stop":
			manager.Stop()
			manager.WaitForStop()
			fmt.Fprintln(rl.Stdout(), "stopped")

		case "help":
			fmt.Fprint(rl.Stdout(), help)

		case "quit", "exit":
			manager.Stop()
			manager.WaitForStop()
			return

		default:
			fmt.Fprintf(rl.Stdout(), "unknown command %q (try help)\n", cmd)
		}
	}

	manager.Stop()
	manager.WaitForStop()
}
