// Package wirelinetest provides testing utilities for wireline
// connections: an in-memory connected peer pair that needs no network
// I/O, plus assertion helpers for common request/notification patterns.
package wirelinetest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/wireline-rpc/wireline"
	"github.com/wireline-rpc/wireline/jsonrpc"
	"github.com/wireline-rpc/wireline/transport"
)

// Peer is one end of an in-memory connection pair. It records every
// notification it receives.
type Peer struct {
	t    testing.TB
	Conn *jsonrpc.Conn

	mu            sync.Mutex
	notifications []Notification
}

// Notification is a received notification, params left raw.
type Notification struct {
	Method string
	Params json.RawMessage
}

// PairOption configures one side of a pair.
type PairOption = wireline.Option

// NewPair connects two peers over an in-memory byte stream. aOpts and
// bOpts configure the respective sides; both connections are started and
// torn down with the test.
func NewPair(t testing.TB, aOpts, bOpts []PairOption) (a, b *Peer) {
	streamA, streamB := transport.MemoryPipe()

	a = newPeer(t, streamA, aOpts)
	b = newPeer(t, streamB, bOpts)
	return a, b
}

func newPeer(t testing.TB, stream interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	Close() error
}, opts []PairOption) *Peer {
	p := &Peer{t: t}

	opts = append(opts, wireline.WithNotificationHandler(
		func(ctx context.Context, method string, params jsonrpc.RawMessage) {
			p.mu.Lock()
			p.notifications = append(p.notifications, Notification{Method: method, Params: params})
			p.mu.Unlock()
		}))

	p.Conn = wireline.NewStreamConnection(stream, stream, opts...)
	p.Conn.Start()
	t.Cleanup(p.Conn.Close)
	return p
}

// Call performs a request and fails the test on transport errors.
func (p *Peer) Call(method string, params interface{}) *jsonrpc.Response {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := p.Conn.Call(ctx, method, params)
	if err != nil {
		p.t.Fatalf("call %s: %v", method, err)
	}
	return resp
}

// Notify sends a notification and fails the test on transport errors.
func (p *Peer) Notify(method string, params interface{}) {
	p.t.Helper()
	if err := p.Conn.Notify(context.Background(), method, params); err != nil {
		p.t.Fatalf("notify %s: %v", method, err)
	}
}

// Notifications returns a snapshot of received notifications.
func (p *Peer) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notification(nil), p.notifications...)
}

// WaitForNotification blocks until a notification with the given method
// arrives or the timeout elapses.
func (p *Peer) WaitForNotification(method string, timeout time.Duration) (Notification, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, n := range p.Notifications() {
			if n.Method == method {
				return n, true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return Notification{}, false
}

// EchoHandler answers every request with its own params.
func EchoHandler(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
	if params == nil {
		return map[string]string{"method": method}, nil
	}
	return params, nil
}
