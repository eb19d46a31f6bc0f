package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// IPCEndpoint is an Endpoint over a pair of byte streams carrying
// newline-delimited JSON messages, the framing used between a parent
// process and a spawned child. Parsing happens inside the endpoint, so the
// process channel on top of it only ever sees structured messages.
type IPCEndpoint struct {
	r io.Reader
	w io.Writer
	c io.Closer

	mu      sync.Mutex
	started bool
	onMsg   func(jsonrpc.Message)

	closeOnce sync.Once
	errs      errorNotifier[error]
	closed    closeNotifier
}

// NewIPCEndpoint creates an endpoint over the given streams. closer is
// closed on Close and may be nil. If r is nil the endpoint is send-only;
// if w is nil it is receive-only and satisfies only the base Endpoint
// capability surface (sends through a channel degrade to no-ops).
func NewIPCEndpoint(r io.Reader, w io.Writer, closer io.Closer) *IPCEndpoint {
	return &IPCEndpoint{r: r, w: w, c: closer}
}

// InheritedEndpoint returns the endpoint a spawned child uses to talk to
// its parent: file descriptor 3 for reading, stdout for writing.
func InheritedEndpoint() *IPCEndpoint {
	in := os.NewFile(3, "ipc-in")
	return NewIPCEndpoint(in, os.Stdout, in)
}

// OnMessage starts the background read loop on first registration.
func (e *IPCEndpoint) OnMessage(cb func(msg jsonrpc.Message)) {
	e.mu.Lock()
	e.onMsg = cb
	start := !e.started && e.r != nil
	e.started = true
	e.mu.Unlock()
	if start {
		go e.readLoop()
	}
}

func (e *IPCEndpoint) OnError(cb func(err error)) { e.errs.on(cb) }
func (e *IPCEndpoint) OnClose(cb func())          { e.closed.on(cb) }

func (e *IPCEndpoint) readLoop() {
	defer e.closed.fire()
	sc := bufio.NewScanner(e.r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := jsonrpc.DecodeMessage(line)
		if err != nil {
			e.errs.fire(err)
			continue
		}
		e.mu.Lock()
		cb := e.onMsg
		e.mu.Unlock()
		if cb != nil {
			cb(msg)
		}
	}
	if err := sc.Err(); err != nil {
		e.errs.fire(err)
	}
}

// Send writes one message as a JSON line. Marshaling errors are returned
// synchronously; the stream write happens after the runtime has accepted
// the message, so its failure is delivered to done instead.
func (e *IPCEndpoint) Send(msg jsonrpc.Message, done func(err error)) error {
	if e.w == nil {
		done(nil)
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	e.mu.Lock()
	_, werr := e.w.Write(append(data, '\n'))
	e.mu.Unlock()
	done(werr)
	return nil
}

// Close closes the underlying streams exactly once.
func (e *IPCEndpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.c != nil {
			err = e.c.Close()
		}
		e.closed.fire()
	})
	return err
}
