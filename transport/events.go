package transport

import (
	"sync"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// WriteErrorEvent is the payload delivered to a writer's error callbacks.
type WriteErrorEvent struct {
	Err error
	// Msg is the message whose send failed, if one was in flight.
	Msg jsonrpc.Message
	// Count is the number of consecutive failed sends including this one.
	// It resets to zero on the next successful send.
	Count int
}

// errorNotifier fans an error event out to registered callbacks.
// Delivery is multi-shot: every event reaches every callback.
type errorNotifier[E any] struct {
	mu  sync.Mutex
	cbs []func(E)
}

func (n *errorNotifier[E]) on(cb func(E)) {
	n.mu.Lock()
	n.cbs = append(n.cbs, cb)
	n.mu.Unlock()
}

func (n *errorNotifier[E]) fire(ev E) {
	n.mu.Lock()
	cbs := n.cbs
	n.mu.Unlock()
	for _, cb := range cbs {
		cb(ev)
	}
}

// closeNotifier fires registered callbacks exactly once, on the first
// call to fire. Callbacks registered after the event see nothing.
type closeNotifier struct {
	mu   sync.Mutex
	once sync.Once
	cbs  []func()
}

func (n *closeNotifier) on(cb func()) {
	n.mu.Lock()
	n.cbs = append(n.cbs, cb)
	n.mu.Unlock()
}

func (n *closeNotifier) fire() {
	n.once.Do(func() {
		n.mu.Lock()
		cbs := n.cbs
		n.mu.Unlock()
		for _, cb := range cbs {
			cb()
		}
	})
}
