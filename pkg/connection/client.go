package connection

import "context"

// Client is the push-client capability the manager drives. The manager
// holds a non-owning reference: it only ever calls Connect and Disconnect
// and reads the Connected flag.
type Client interface {
	// Connect establishes the connection. It may fail and is not assumed
	// to be idempotent.
	Connect(ctx context.Context) error

	// Disconnect tears down the connection. It must be safe to call when
	// already disconnected; the manager never propagates its error.
	Disconnect() error

	// Connected reports liveness as seen by the client.
	Connected() bool
}

// CloseNotifier is implemented by clients that can signal abrupt closure
// (for example a socket close). The manager uses it as a fast detection
// path that bypasses the periodic liveness check. Clients without it are
// still supported; only the fast path is lost.
type CloseNotifier interface {
	// CloseEvents returns a channel that receives an error each time the
	// underlying connection closes abruptly. The channel must survive
	// redials of the same client.
	CloseEvents() <-chan error
}
