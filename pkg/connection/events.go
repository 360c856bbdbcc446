package connection

import (
	"time"

	"github.com/pushwire/pushwire-go/pkg/log"
)

// Event emission helpers. All are no-ops without a configured EventLog.

func (m *Manager) emitStateChange(old, new State, reason string) {
	if m.events == nil {
		return
	}
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		AccountID: m.accountID,
		Category:  log.CategoryStateChange,
		StateChange: &log.StateChangeEvent{
			Old:    old.String(),
			New:    new.String(),
			Reason: reason,
		},
	})
}

func (m *Manager) emitAttempt(phase log.Phase, number int, delay time.Duration, err error) {
	if m.events == nil {
		return
	}
	attempt := &log.AttemptEvent{
		Phase:  phase,
		Number: number,
		Delay:  delay,
	}
	if err != nil {
		attempt.Error = err.Error()
	}
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		AccountID: m.accountID,
		Category:  log.CategoryAttempt,
		Attempt:   attempt,
	})
}

func (m *Manager) emitError(where string, err error) {
	if m.events == nil {
		return
	}
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		AccountID: m.accountID,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Context: where,
			Message: err.Error(),
		},
	})
}

func (m *Manager) emitDrop(reason string, c Counters) {
	if m.events == nil {
		return
	}
	m.events.Log(log.Event{
		Timestamp: time.Now(),
		AccountID: m.accountID,
		Category:  log.CategoryDrop,
		Drop: &log.DropEvent{
			Reason:    reason,
			Attempts:  c.Attempts,
			Successes: c.Successes,
			Failures:  c.Failures,
		},
	})
}
