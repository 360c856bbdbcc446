// Package transport implements the websocket push client supervised by
// pkg/connection.
//
// A Socket is reusable across dials: the connection manager calls
// Disconnect and Connect repeatedly while the messages and close-event
// channels stay stable for the lifetime of the Socket. Each dial gets a
// fresh connection ID for log correlation.
//
// Inbound payloads are delivered raw on Messages; deduplication,
// acknowledgement, and message handling live outside this package.
package transport
