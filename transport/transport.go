// Package transport establishes duplex message channels for JSON-RPC
// sessions over named pipes, loopback TCP sockets, WebSockets, and native
// inter-process endpoints, and adapts each of them into a uniform
// MessageReader/MessageWriter pair.
//
// Role naming follows the RPC session rather than who accepts: the client
// role opens a rendezvous point and waits for its peer (acceptor), the
// server role dials out to a known address (connector).
package transport

import (
	"context"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// MessageReader delivers inbound protocol messages through a callback.
// Listen may be called at most once; delivery stops when the underlying
// endpoint ends or errors. Error callbacks may fire multiple times; the
// close callback fires exactly once.
type MessageReader interface {
	// Listen starts delivery and invokes cb sequentially for every
	// inbound message until the endpoint closes.
	Listen(cb func(msg jsonrpc.Message))

	// OnError registers a callback for read or decode failures.
	OnError(cb func(err error))

	// OnClose registers a callback invoked once when the endpoint ends.
	OnClose(cb func())
}

// MessageWriter sends outbound protocol messages. Write blocks until the
// underlying transport accepts the bytes or fails. Writers do not serialize
// concurrent callers beyond per-write atomicity; callers wanting strict
// ordering must await each Write before issuing the next.
type MessageWriter interface {
	// Write serializes and sends one message.
	Write(ctx context.Context, msg jsonrpc.Message) error

	// OnError registers a callback for send failures. The event carries
	// the offending message and the consecutive-failure count.
	OnError(cb func(ev WriteErrorEvent))

	// OnClose registers a callback invoked once when the endpoint ends.
	OnClose(cb func())

	// Dispose closes the underlying endpoint. Safe to call more than
	// once; the endpoint is closed exactly once.
	Dispose()
}

// Channel is a reader/writer pair bound to one live transport endpoint.
// The writer owns the endpoint: disposing it closes the transport.
type Channel struct {
	Reader MessageReader
	Writer MessageWriter
}
