package transport

import (
	"context"
	"sync"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// Endpoint is a native inter-process message endpoint: messages arrive
// pre-parsed, with no byte framing owned by this layer. An Endpoint that
// can also send implements Sender; one that cannot (a receive-only handle)
// still forms a valid channel whose writes are silent no-ops.
type Endpoint interface {
	// OnMessage subscribes cb to every inbound message for the lifetime
	// of the endpoint. There is no unsubscribe.
	OnMessage(cb func(msg jsonrpc.Message))

	// OnError subscribes cb to endpoint-level failures.
	OnError(cb func(err error))

	// OnClose subscribes cb to endpoint termination; fired once.
	OnClose(cb func())

	// Close terminates the endpoint.
	Close() error
}

// Sender is the optional send capability of an Endpoint. A synchronous
// failure is returned from Send; a failure detected after the runtime
// accepted the message is delivered to done, which is always invoked
// exactly once when err is nil on return.
type Sender interface {
	Send(msg jsonrpc.Message, done func(err error)) error
}

// NewProcessChannel adapts an inter-process endpoint into a message
// channel. The channel bypasses the transport bootstrap entirely: the
// endpoint already exists (a spawned child, or the current process's
// inherited descriptors).
func NewProcessChannel(ep Endpoint) Channel {
	return Channel{
		Reader: NewProcessReader(ep),
		Writer: NewProcessWriter(ep),
	}
}

// ProcessReader delivers the endpoint's pre-parsed inbound messages.
type ProcessReader struct {
	ep Endpoint

	listenOnce sync.Once
	errs       errorNotifier[error]
	closed     closeNotifier
}

// NewProcessReader wraps the receive side of an endpoint. Endpoint error
// and close events are forwarded verbatim to the reader's own callbacks.
func NewProcessReader(ep Endpoint) *ProcessReader {
	r := &ProcessReader{ep: ep}
	ep.OnError(func(err error) { r.errs.fire(err) })
	ep.OnClose(func() { r.closed.fire() })
	return r
}

// Listen subscribes cb to every inbound message for the lifetime of the
// endpoint. Subsequent calls are no-ops.
func (r *ProcessReader) Listen(cb func(msg jsonrpc.Message)) {
	r.listenOnce.Do(func() {
		r.ep.OnMessage(cb)
	})
}

func (r *ProcessReader) OnError(cb func(err error)) { r.errs.on(cb) }
func (r *ProcessReader) OnClose(cb func())          { r.closed.on(cb) }

// ProcessWriter sends messages through an endpoint, tracking consecutive
// send failures.
type ProcessWriter struct {
	ep Endpoint

	mu       sync.Mutex
	errCount int

	disposeOnce sync.Once
	errs        errorNotifier[WriteErrorEvent]
	closed      closeNotifier
}

// NewProcessWriter wraps the send side of an endpoint. Endpoint error and
// close events are forwarded verbatim.
func NewProcessWriter(ep Endpoint) *ProcessWriter {
	w := &ProcessWriter{ep: ep}
	ep.OnError(func(err error) { w.errs.fire(WriteErrorEvent{Err: err, Count: w.count()}) })
	ep.OnClose(func() { w.closed.fire() })
	return w
}

// Write attempts a native send. An endpoint without the send capability
// makes Write a silent no-op that still succeeds (degrade-gracefully, not
// a failure). A synchronous send error is counted, reported, and returned;
// an asynchronous one (the runtime accepted the message but delivery
// failed later) is counted and reported through the error callbacks only,
// while Write itself has already succeeded. A successful send resets the
// consecutive-failure count to zero.
func (w *ProcessWriter) Write(ctx context.Context, msg jsonrpc.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sender, ok := w.ep.(Sender)
	if !ok {
		return nil
	}

	err := sender.Send(msg, func(err error) {
		if err != nil {
			w.fail(msg, err)
			return
		}
		w.reset()
	})
	if err != nil {
		return w.fail(msg, err)
	}
	return nil
}

func (w *ProcessWriter) fail(msg jsonrpc.Message, err error) error {
	w.mu.Lock()
	w.errCount++
	n := w.errCount
	w.mu.Unlock()
	w.errs.fire(WriteErrorEvent{Err: err, Msg: msg, Count: n})
	return &WriteError{Err: err, Msg: msg, Count: n}
}

func (w *ProcessWriter) reset() {
	w.mu.Lock()
	w.errCount = 0
	w.mu.Unlock()
}

func (w *ProcessWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errCount
}

func (w *ProcessWriter) OnError(cb func(ev WriteErrorEvent)) { w.errs.on(cb) }
func (w *ProcessWriter) OnClose(cb func())                   { w.closed.on(cb) }

// Dispose closes the endpoint exactly once.
func (w *ProcessWriter) Dispose() {
	w.disposeOnce.Do(func() {
		w.ep.Close()
		w.closed.fire()
	})
}
