package connection

import (
	"fmt"
	"time"

	"github.com/pushwire/pushwire-go/pkg/log"
)

// defaultCheckInterval is used when Config.CheckInterval is unset.
const defaultCheckInterval = 5 * time.Second

// Drop detection reasons, recorded with the counters snapshot.
const (
	dropReasonPeriodic   = "periodic"
	dropReasonCloseEvent = "close-event"
)

// startMonitor launches the liveness monitor. Called once, after the
// initial connect succeeds.
func (m *Manager) startMonitor() {
	interval := m.cfg.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	grace := m.cfg.GracePeriod
	if grace <= 0 {
		grace = interval * 3 / 5
	}
	go m.monitor(interval, grace)
}

// monitor watches the client for connection loss. Two paths feed the same
// recovery logic: the periodic check, gated by the grace window, and the
// client's close events, acted on immediately. The goroutine exits on Stop
// or when recovery exhausts the runtime cycle budget.
func (m *Manager) monitor(interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var closeEvents <-chan error
	if cn, ok := m.client.(CloseNotifier); ok {
		closeEvents = cn.CloseEvents()
	}

	for {
		select {
		case <-m.ctx.Done():
			return

		case <-ticker.C:
			if m.client.Connected() {
				continue
			}
			m.mu.Lock()
			since := m.connectedSince
			m.mu.Unlock()
			if time.Since(since) <= grace {
				continue
			}
			if !m.recover(dropReasonPeriodic) {
				return
			}

		case err, ok := <-closeEvents:
			if !ok {
				closeEvents = nil
				continue
			}
			// A stale event from a dial that was already replaced.
			if m.client.Connected() {
				continue
			}
			m.logger.Warn("connection closed abruptly", "error", err)
			if !m.recover(dropReasonCloseEvent) {
				return
			}
		}
	}
}

// recover drives runtime reconnect cycles after a detected drop. It
// returns true once reconnected, false when the manager stopped or the
// cycle budget ran out (which enters FAILED).
func (m *Manager) recover(reason string) bool {
	m.mu.Lock()
	snapshot := m.counters
	m.mu.Unlock()

	m.logger.Info("connection drop detected",
		"reason", reason,
		"runtime_attempts", snapshot.Attempts,
		"runtime_successes", snapshot.Successes,
		"runtime_failures", snapshot.Failures,
	)
	m.emitDrop(reason, snapshot)

	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return false
		}
		limit := m.cfg.MaxReconnectCycles
		if limit > 0 && m.cycles >= limit {
			m.mu.Unlock()
			m.transition(StateFailed, fmt.Sprintf("Max runtime reconnect cycles (%d) reached", limit))
			return false
		}
		m.cycles++
		cycle := m.cycles
		m.mu.Unlock()

		delay := m.backoff.DelayForAttempt(cycle)
		m.logger.Debug("runtime reconnect scheduled", "cycle", cycle, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		m.mu.Lock()
		m.counters.Attempts++
		m.mu.Unlock()

		m.cleanupBeforeAttempt()
		err := m.attemptConnect(m.ctx)

		if m.IsStopped() {
			return false
		}

		if err == nil {
			m.mu.Lock()
			m.connectedSince = time.Now()
			m.counters.Successes++
			m.mu.Unlock()

			m.logger.Info("reconnected", "cycle", cycle)
			m.emitAttempt(log.PhaseRuntime, cycle, delay, nil)
			return true
		}

		m.mu.Lock()
		m.counters.Failures++
		m.mu.Unlock()

		m.logger.Warn("runtime reconnect failed", "cycle", cycle, "error", err)
		m.emitAttempt(log.PhaseRuntime, cycle, delay, err)
	}
}
