// Package simclient provides a scriptable in-memory push client for
// exercising the connection supervisor without a network. It backs the
// pushwire-sim console and its tests.
package simclient

import (
	"context"
	"sync"
	"time"

	"github.com/pushwire/pushwire-go/pkg/connection"
)

// Client is a fake push client. Connect outcomes can be scripted per
// call, drops can be injected silently or via close events, and every
// call is counted.
type Client struct {
	mu sync.Mutex

	// results are consumed one per Connect call; nil means success.
	// When the queue is empty, failAll (if set) or success applies.
	results []error
	failAll error

	latency time.Duration

	connected       bool
	connectCalls    int
	disconnectCalls int

	closeCh chan error
}

// New creates a simulated client whose connects succeed by default.
func New() *Client {
	return &Client{
		closeCh: make(chan error, 4),
	}
}

// ScriptResults queues outcomes for the next Connect calls, one each.
// A nil entry means success.
func (c *Client) ScriptResults(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, errs...)
}

// FailAlways makes every unscripted Connect fail with err. Pass nil to
// restore the succeed-by-default behavior.
func (c *Client) FailAlways(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAll = err
}

// SetLatency adds an artificial delay to every Connect call.
func (c *Client) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Connect consumes the next scripted outcome.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	latency := c.latency
	c.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectCalls++

	var result error
	if len(c.results) > 0 {
		result = c.results[0]
		c.results = c.results[1:]
	} else {
		result = c.failAll
	}

	c.connected = result == nil
	return result
}

// Disconnect marks the client disconnected. Always succeeds.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCalls++
	c.connected = false
	return nil
}

// Connected reports the simulated liveness flag.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// CloseEvents returns the abrupt-close channel.
func (c *Client) CloseEvents() <-chan error {
	return c.closeCh
}

// DropSilent simulates a silent connection loss: the liveness flag goes
// false without a close event, so only the periodic check can see it.
func (c *Client) DropSilent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// DropAbrupt simulates a socket closure: the liveness flag goes false
// and a close event is emitted.
func (c *Client) DropAbrupt(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	select {
	case c.closeCh <- err:
	default:
	}
}

// ConnectCalls returns the number of Connect calls so far.
func (c *Client) ConnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectCalls
}

// DisconnectCalls returns the number of Disconnect calls so far.
func (c *Client) DisconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectCalls
}

// Compile-time interface satisfaction checks.
var (
	_ connection.Client        = (*Client)(nil)
	_ connection.CloseNotifier = (*Client)(nil)
)
