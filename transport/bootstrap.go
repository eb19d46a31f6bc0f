package transport

import (
	"context"
	"net"
	"strconv"
	"sync"
)

// ClientTransport is a client-role bootstrap: a live rendezvous point
// waiting for exactly one peer. The lifecycle is
// Listening -> (Connected | closed), and Connected is terminal: the
// listener is torn down synchronously when the first connection is
// accepted, so later dials to the same address are refused by the OS.
type ClientTransport struct {
	ln  net.Listener
	enc Encoding

	acceptOnce sync.Once
	connected  chan acceptResult
}

type acceptResult struct {
	ch  Channel
	err error
}

func newClientTransport(ln net.Listener, enc Encoding) *ClientTransport {
	return &ClientTransport{
		ln:        ln,
		enc:       enc,
		connected: make(chan acceptResult, 1),
	}
}

// OnConnected blocks until the first peer connects and returns its channel.
// The result is latched: every call observes the same channel or error.
// This layer imposes no timeout; bound the wait through ctx.
func (t *ClientTransport) OnConnected(ctx context.Context) (Channel, error) {
	t.acceptOnce.Do(func() {
		go t.acceptFirst()
	})
	select {
	case res := <-t.connected:
		// Re-latch so concurrent and repeated callers all resolve.
		t.connected <- res
		return res.ch, res.err
	case <-ctx.Done():
		return Channel{}, ctx.Err()
	}
}

func (t *ClientTransport) acceptFirst() {
	conn, err := t.ln.Accept()
	// Close the listener before anything else: this is the sole mechanism
	// making the first connection exclusive.
	t.ln.Close()
	if err != nil {
		t.connected <- acceptResult{err: err}
		return
	}
	t.connected <- acceptResult{ch: NewStreamChannel(conn, t.enc)}
}

// Close tears down the rendezvous point. A pending OnConnected fails.
func (t *ClientTransport) Close() error { return t.ln.Close() }

// Addr returns the address the bootstrap is listening on.
func (t *ClientTransport) Addr() net.Addr { return t.ln.Addr() }

// NewClientPipeTransport opens a rendezvous point at the given pipe
// address (a named pipe on Windows, a unix socket path elsewhere). The
// returned bootstrap accepts exactly one connection via OnConnected.
// A bind failure is returned immediately and is not retried.
func NewClientPipeTransport(addr string, enc Encoding) (*ClientTransport, error) {
	ln, err := listenPipe(addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return newClientTransport(ln, enc), nil
}

// NewServerPipeTransport dials the rendezvous point at the given pipe
// address and returns the connected channel.
func NewServerPipeTransport(ctx context.Context, addr string, enc Encoding) (Channel, error) {
	conn, err := dialPipe(ctx, addr)
	if err != nil {
		return Channel{}, &ConnectError{Addr: addr, Err: err}
	}
	return NewStreamChannel(conn, enc), nil
}

// NewClientSocketTransport opens a rendezvous point on the loopback
// interface at the given port. Port 0 picks a free port; read it back via
// Addr. The socket never binds to a non-loopback interface.
func NewClientSocketTransport(port int, enc Encoding) (*ClientTransport, error) {
	addr := loopbackAddr(port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return newClientTransport(ln, enc), nil
}

// NewServerSocketTransport dials the loopback rendezvous point at the
// given port and returns the connected channel.
func NewServerSocketTransport(ctx context.Context, port int, enc Encoding) (Channel, error) {
	addr := loopbackAddr(port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Channel{}, &ConnectError{Addr: addr, Err: err}
	}
	return NewStreamChannel(conn, enc), nil
}

func loopbackAddr(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}
