package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	t.Run("StateChange", func(t *testing.T) {
		buf.Reset()
		adapter.Log(Event{
			Timestamp: time.Now(),
			AccountID: "acct-1",
			Category:  CategoryStateChange,
			StateChange: &StateChangeEvent{
				Old:    "CONNECTING",
				New:    "CONNECTED",
			},
		})

		out := buf.String()
		for _, want := range []string{"account_id=acct-1", "category=STATE", "old_state=CONNECTING", "new_state=CONNECTED"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %s", want, out)
			}
		}
	})

	t.Run("Attempt", func(t *testing.T) {
		buf.Reset()
		adapter.Log(Event{
			Timestamp: time.Now(),
			AccountID: "acct-1",
			Category:  CategoryAttempt,
			Attempt: &AttemptEvent{
				Phase:  PhaseRuntime,
				Number: 3,
				Delay:  2 * time.Second,
				Error:  "connection refused",
			},
		})

		out := buf.String()
		for _, want := range []string{"category=ATTEMPT", "phase=RUNTIME", "attempt=3", "connection refused"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %s", want, out)
			}
		}
	})

	t.Run("Drop", func(t *testing.T) {
		buf.Reset()
		adapter.Log(Event{
			Timestamp: time.Now(),
			AccountID: "acct-1",
			Category:  CategoryDrop,
			Drop: &DropEvent{
				Reason:    "periodic",
				Attempts:  4,
				Successes: 3,
				Failures:  1,
			},
		})

		out := buf.String()
		for _, want := range []string{"category=DROP", "reason=periodic", "runtime_attempts=4"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %s", want, out)
			}
		}
	})
}
