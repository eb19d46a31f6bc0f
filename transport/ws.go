package transport

import (
	"context"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// NewClientWebSocketTransport opens a WebSocket rendezvous point on addr.
// Like the pipe and socket bootstraps it accepts exactly one connection:
// the HTTP server is shut down as soon as the first upgrade completes.
func NewClientWebSocketTransport(addr string, enc Encoding) (*ClientTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return newClientTransport(newWSListener(ln), enc), nil
}

// NewServerWebSocketTransport dials the WebSocket rendezvous point at url
// (ws://host:port/) and returns the connected channel.
func NewServerWebSocketTransport(_ context.Context, url, origin string, enc Encoding) (Channel, error) {
	ws, err := websocket.Dial(url, "", origin)
	if err != nil {
		return Channel{}, &ConnectError{Addr: url, Err: err}
	}
	return NewStreamChannel(&wsConn{Conn: ws}, enc), nil
}

// wsListener adapts an HTTP server with WebSocket upgrade to the
// net.Listener Accept shape the bootstrap expects.
type wsListener struct {
	ln   net.Listener
	srv  *http.Server
	conn chan *websocket.Conn
	done chan struct{}

	closeOnce sync.Once
}

func newWSListener(ln net.Listener) *wsListener {
	l := &wsListener{
		ln:   ln,
		conn: make(chan *websocket.Conn, 1),
		done: make(chan struct{}),
	}
	l.srv = &http.Server{Handler: websocket.Handler(func(ws *websocket.Conn) {
		select {
		case l.conn <- ws:
			// Hold the handler open: returning would close the socket.
			select {}
		case <-l.done:
			ws.Close()
		}
	})}
	go l.srv.Serve(ln)
	return l
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case ws := <-l.conn:
		return &wsConn{Conn: ws}, nil
	case <-l.done:
		return nil, ErrTransportClosed
	}
}

func (l *wsListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.srv.Close()
	})
	return nil
}

func (l *wsListener) Addr() net.Addr { return l.ln.Addr() }

// wsConn narrows *websocket.Conn to the byte-stream shape used here. A
// message larger than the caller's buffer is carried over into the next
// Read calls; rest is only touched by the single reading goroutine.
type wsConn struct {
	*websocket.Conn
	rest []byte
}

func (c *wsConn) Read(p []byte) (int, error) {
	if len(c.rest) == 0 {
		var msg []byte
		if err := websocket.Message.Receive(c.Conn, &msg); err != nil {
			return 0, err
		}
		c.rest = msg
	}
	n := copy(p, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(c.Conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
