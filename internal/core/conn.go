package core

import "context"

// Conn is one client's bidirectional line stream as seen by the core.
// Transports provide implementations; Receive must unblock with an error
// once Close is called or ctx is done.
type Conn interface {
	// Peer returns an opaque identifier of the remote end, usually its address.
	Peer() string
	// Receive blocks for the next inbound line, without its terminator.
	Receive(ctx context.Context) (string, error)
	// Send writes one line. Implementations honour the ctx deadline.
	Send(ctx context.Context, text string) error
	// Close releases the connection. Safe to call more than once.
	Close() error
}
