package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pushwire/pushwire-go/pkg/log"
)

// Manager errors.
var (
	// ErrStopped is returned by Connect once Stop has been called.
	ErrStopped = errors.New("connection manager is stopped")

	// ErrConnectCancelled is returned by Connect when Stop interrupts an
	// in-flight attempt or a pending backoff wait. It is distinct from any
	// connect failure reported by the client.
	ErrConnectCancelled = errors.New("connect cancelled: stop requested")

	// ErrAlreadyConnected is returned by Connect when a connect sequence
	// already ran.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrFailed is returned by Connect after the manager entered the
	// terminal FAILED state.
	ErrFailed = errors.New("connection manager has failed")
)

// State represents the connection lifecycle state.
type State uint8

const (
	// StateDisconnected indicates no connection. It is the initial state
	// and, once the manager is stopped, a terminal one.
	StateDisconnected State = iota

	// StateConnecting indicates the initial connect sequence is running.
	StateConnecting

	// StateConnected indicates an established connection. The state is
	// kept through runtime recovery; IsConnected additionally consults
	// the client's own liveness flag.
	StateConnected

	// StateDisconnecting indicates a stop is in progress.
	StateDisconnecting

	// StateFailed is the terminal state after an attempt budget is
	// exhausted. No further automatic transitions occur.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the supervision parameters.
type Config struct {
	// MaxAttempts bounds the initial connect sequence. Values below 1 are
	// treated as 1.
	MaxAttempts int

	// InitialDelay is the backoff delay after the first failed attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff growth.
	MaxDelay time.Duration

	// Jitter is the backoff jitter fraction in [0, 1].
	Jitter float64

	// MaxReconnectCycles bounds runtime recovery. Zero means unbounded.
	MaxReconnectCycles int

	// CheckInterval is the liveness check period.
	CheckInterval time.Duration

	// GracePeriod is the window after a successful connect during which a
	// negative liveness check is ignored. Zero selects 3/5 of
	// CheckInterval, which keeps the window strictly between half an
	// interval and a full one.
	GracePeriod time.Duration

	// OnStateChange, when set, is invoked synchronously with every state
	// transition. The reason is empty except for FAILED transitions.
	OnStateChange func(state State, reason string)

	// EventLog, when set, receives supervision events (state changes,
	// attempts, drops) for the audit trail.
	EventLog log.Logger
}

// Counters tracks runtime-phase reconnect activity. The values are
// observability only; control decisions never depend on them.
type Counters struct {
	Attempts  int64
	Successes int64
	Failures  int64
}

// Manager supervises a single push-service connection: it drives the
// bounded initial connect, monitors liveness, recovers from drops within
// the runtime cycle budget, and shuts down cleanly.
type Manager struct {
	mu sync.Mutex

	client    Client
	accountID string
	cfg       Config
	backoff   *Backoff
	logger    *slog.Logger
	events    log.Logger

	state   State
	stopped bool

	initialAttempts int
	cycles          int
	counters        Counters

	connectedSince time.Time

	// ctx is cancelled on Stop so in-flight client connects unblock.
	ctx    context.Context
	cancel context.CancelFunc

	// stopCh is closed on Stop; it interrupts backoff waits.
	stopCh chan struct{}

	// doneCh is closed once Stop completes; WaitForStop blocks on it.
	doneCh chan struct{}
}

// NewManager creates a manager around the given client. The account ID is
// used only for log correlation. A nil logger disables operational logging.
func NewManager(client Client, accountID string, cfg Config, logger *slog.Logger) *Manager {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		client:    client,
		accountID: accountID,
		cfg:       cfg,
		backoff:   NewBackoff(cfg.InitialDelay, cfg.MaxDelay, cfg.Jitter),
		logger:    logger.With("account_id", accountID),
		events:    cfg.EventLog,
		state:     StateDisconnected,
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the manager is in CONNECTED state and the
// client itself reports liveness.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	connected := m.state == StateConnected
	m.mu.Unlock()
	return connected && m.client.Connected()
}

// IsStopped reports whether Stop has been called.
func (m *Manager) IsStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// RuntimeCounters returns a snapshot of the runtime-phase counters.
func (m *Manager) RuntimeCounters() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters
}

// Connect runs the bounded initial connect sequence. On success the
// liveness monitor is started and Connect returns nil. After MaxAttempts
// failures the manager enters FAILED and the error names the attempt
// count. Stop interrupts the sequence with ErrConnectCancelled.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.stopped:
		m.mu.Unlock()
		return ErrStopped
	case m.state == StateConnecting || m.state == StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case m.state == StateFailed:
		m.mu.Unlock()
		return ErrFailed
	}
	// Claim CONNECTING under the same lock so a concurrent Connect cannot
	// pass the checks above.
	old := m.state
	m.state = StateConnecting
	m.mu.Unlock()

	m.notifyTransition(old, StateConnecting, "")

	maxAttempts := m.cfg.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		m.cleanupBeforeAttempt()

		err := m.attemptConnect(ctx)

		if m.IsStopped() {
			m.disconnectQuietly("cancelled connect")
			return ErrConnectCancelled
		}
		if ctx.Err() != nil {
			m.disconnectQuietly("cancelled connect")
			return ctx.Err()
		}

		if err == nil {
			m.mu.Lock()
			m.initialAttempts = attempt
			m.connectedSince = time.Now()
			m.mu.Unlock()

			m.transition(StateConnected, "")
			m.emitAttempt(log.PhaseInitial, attempt, 0, nil)
			m.logger.Info("connected", "attempt", attempt)

			m.startMonitor()
			return nil
		}

		lastErr = err
		m.mu.Lock()
		m.initialAttempts = attempt
		m.mu.Unlock()
		m.logger.Warn("connect attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		m.emitAttempt(log.PhaseInitial, attempt, 0, err)

		if attempt < maxAttempts {
			if !m.waitBackoff(ctx, attempt) {
				m.disconnectQuietly("cancelled connect")
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrConnectCancelled
			}
		}
	}

	reason := fmt.Sprintf("connect failed after %d attempts", maxAttempts)
	m.transition(StateFailed, reason)
	return fmt.Errorf("connect failed after %d attempts: %w", maxAttempts, lastErr)
}

// Stop shuts the manager down. It is idempotent: only the first call has
// any effect. Pending backoff waits and in-flight connects are cancelled,
// the client is disconnected best-effort, and all WaitForStop callers are
// released exactly once.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	m.logger.Info("stopping connection manager")
	m.transition(StateDisconnecting, "")

	close(m.stopCh)
	m.cancel()

	m.disconnectQuietly("stop")

	m.transition(StateDisconnected, "")
	close(m.doneCh)
}

// WaitForStop blocks until Stop has completed. It returns immediately if
// the manager is already stopped.
func (m *Manager) WaitForStop() {
	<-m.doneCh
}

// Done returns a channel closed once Stop has completed.
func (m *Manager) Done() <-chan struct{} {
	return m.doneCh
}

// transition sets the state and notifies observers in transition order.
func (m *Manager) transition(s State, reason string) {
	m.mu.Lock()
	old := m.state
	m.state = s
	m.mu.Unlock()

	m.notifyTransition(old, s, reason)
}

// notifyTransition fires the observers for an already-applied transition.
func (m *Manager) notifyTransition(old, new State, reason string) {
	m.logger.Debug("state change", "old", old.String(), "new", new.String(), "reason", reason)
	m.emitStateChange(old, new, reason)

	if cb := m.cfg.OnStateChange; cb != nil {
		cb(new, reason)
	}
}

// cleanupBeforeAttempt releases stale client resources before a connect
// attempt. Errors are logged and never abort the attempt.
func (m *Manager) cleanupBeforeAttempt() {
	if err := m.client.Disconnect(); err != nil {
		m.logger.Debug("pre-connect cleanup: disconnect failed", "error", err)
		m.emitError("pre-connect cleanup", err)
	}
}

// attemptConnect runs one client connect, cancelled by either the caller
// context or a stop request.
func (m *Manager) attemptConnect(ctx context.Context) error {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	unhook := context.AfterFunc(m.ctx, cancel)
	defer unhook()

	return m.client.Connect(attemptCtx)
}

// waitBackoff sleeps for the backoff delay of the given attempt. It
// returns false when the wait was interrupted by Stop or by the caller
// context.
func (m *Manager) waitBackoff(ctx context.Context, attempt int) bool {
	delay := m.backoff.DelayForAttempt(attempt)
	m.logger.Debug("backing off before retry", "attempt", attempt, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// disconnectQuietly disconnects the client, swallowing any error.
func (m *Manager) disconnectQuietly(during string) {
	if err := m.client.Disconnect(); err != nil {
		m.logger.Debug("disconnect failed", "during", during, "error", err)
		m.emitError(during, err)
	}
}
