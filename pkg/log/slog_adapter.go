package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes supervision events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("account_id", event.AccountID),
		slog.String("category", event.Category.String()),
	}

	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.Old),
			slog.String("new_state", event.StateChange.New),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Attempt != nil:
		attrs = append(attrs,
			slog.String("phase", event.Attempt.Phase.String()),
			slog.Int("attempt", event.Attempt.Number),
			slog.Duration("delay", event.Attempt.Delay),
		)
		if event.Attempt.Error != "" {
			attrs = append(attrs, slog.String("error", event.Attempt.Error))
		}
	case event.Drop != nil:
		attrs = append(attrs,
			slog.String("reason", event.Drop.Reason),
			slog.Int64("runtime_attempts", event.Drop.Attempts),
			slog.Int64("runtime_successes", event.Drop.Successes),
			slog.Int64("runtime_failures", event.Drop.Failures),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_context", event.Error.Context),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "supervision event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
