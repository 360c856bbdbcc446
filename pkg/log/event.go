package log

import "time"

// Event represents a supervision log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// AccountID correlates events with the supervised account.
	AccountID string `cbor:"2,keyasint"`

	// ConnectionID identifies the underlying transport dial, when known.
	ConnectionID string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"5,keyasint,omitempty"`
	Attempt     *AttemptEvent     `cbor:"6,keyasint,omitempty"`
	Drop        *DropEvent        `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryStateChange indicates a connection state transition.
	CategoryStateChange Category = 0

	// CategoryAttempt indicates a connect attempt, initial or runtime.
	CategoryAttempt Category = 1

	// CategoryDrop indicates a detected connection loss.
	CategoryDrop Category = 2

	// CategoryError indicates a non-fatal error worth auditing.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStateChange:
		return "STATE"
	case CategoryAttempt:
		return "ATTEMPT"
	case CategoryDrop:
		return "DROP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Phase distinguishes the two attempt budgets.
type Phase uint8

const (
	// PhaseInitial covers attempts before the first successful connect.
	PhaseInitial Phase = 0

	// PhaseRuntime covers reconnect cycles after a connection loss.
	PhaseRuntime Phase = 1
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "INITIAL"
	case PhaseRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent records a connection state transition.
type StateChangeEvent struct {
	// Old is the previous state name.
	Old string `cbor:"1,keyasint"`

	// New is the new state name.
	New string `cbor:"2,keyasint"`

	// Reason explains the transition; set for FAILED transitions.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// AttemptEvent records one connect attempt.
type AttemptEvent struct {
	// Phase is the budget this attempt consumed.
	Phase Phase `cbor:"1,keyasint"`

	// Number is the 1-indexed attempt number within the phase.
	Number int `cbor:"2,keyasint"`

	// Delay is the backoff delay that preceded the attempt.
	Delay time.Duration `cbor:"3,keyasint,omitempty"`

	// Error is the failure message; empty on success.
	Error string `cbor:"4,keyasint,omitempty"`
}

// DropEvent records a detected connection loss together with a snapshot
// of the runtime reconnect counters at detection time.
type DropEvent struct {
	// Reason is the detection path: "periodic" or "close-event".
	Reason string `cbor:"1,keyasint"`

	// Attempts is the number of runtime reconnect attempts so far.
	Attempts int64 `cbor:"2,keyasint"`

	// Successes is the number of successful runtime reconnects so far.
	Successes int64 `cbor:"3,keyasint"`

	// Failures is the number of failed runtime reconnects so far.
	Failures int64 `cbor:"4,keyasint"`
}

// ErrorEventData records a non-fatal error.
type ErrorEventData struct {
	// Context describes where the error occurred.
	Context string `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`
}
