package transport

import (
	"errors"
	"fmt"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// ErrTransportClosed reports that the peer closed or the endpoint was
// disposed. No further reads or writes will succeed.
var ErrTransportClosed = errors.New("transport closed")

// BindError reports that a client-role bootstrap could not acquire its
// rendezvous address (pipe already in use or port occupied). Bind failures
// are not retried by this layer.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return fmt.Sprintf("bind %s: %v", e.Addr, e.Err) }
func (e *BindError) Unwrap() error { return e.Err }

// ConnectError reports that a server-role dial failed.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("connect %s: %v", e.Addr, e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError reports a serialization or transport-level send failure.
// Count is the consecutive-failure count at the time of the failure.
type WriteError struct {
	Err   error
	Msg   jsonrpc.Message
	Count int
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed (consecutive failures: %d): %v", e.Count, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
