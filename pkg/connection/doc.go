// Package connection supervises the single persistent connection to the
// push-notification service.
//
// This package handles:
//   - Bounded initial connect with exponential backoff and jitter
//   - Liveness monitoring with a post-connect grace window
//   - Runtime reconnection with an independent cycle budget
//   - Idempotent, race-free shutdown
//
// # Attempt Budgets
//
// Two budgets are consumed independently and never shared:
//
//  1. Initial-connect attempts (MaxAttempts): spent only before the first
//     successful connection. Exhaustion fails Connect and the manager
//     enters FAILED.
//  2. Runtime-reconnect cycles (MaxReconnectCycles, 0 = unbounded): spent
//     only after a successful connection is later lost. Exhaustion enters
//     FAILED via the state-change callback; Connect has long since returned.
//
// # Backoff
//
// The delay before retrying attempt n (1-indexed) is:
//
//	min(MaxDelay, InitialDelay * 2^(n-1))
//
// scaled by a uniform random factor in [1-Jitter, 1+Jitter]. With Jitter
// zero the delay is exactly the base value. Attempt numbering is separate
// for the two phases.
//
// # Grace Window
//
// A drop reported by the periodic liveness check is ignored until the
// connection has been up for longer than GracePeriod. This avoids acting on
// the transient not-yet-ready states a brand-new connection can report. A
// close event from the client bypasses the window entirely.
//
// # Shutdown
//
// Stop is safe from any state and idempotent. It cancels pending backoff
// waits and in-flight connect attempts (which then fail with
// ErrConnectCancelled), disconnects the client best-effort, and releases
// every WaitForStop caller exactly once.
package connection
