// Package jsonrpc implements a bidirectional JSON-RPC 2.0 connection over
// an abstract message reader/writer pair, independent of the transport
// that produced the pair.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// MessageReader is the receive capability a Conn consumes. Transport
// channel readers satisfy it.
type MessageReader interface {
	Listen(cb func(msg Message))
	OnClose(cb func())
}

// MessageWriter is the send capability a Conn consumes. Transport channel
// writers satisfy it.
type MessageWriter interface {
	Write(ctx context.Context, msg Message) error
	Dispose()
}

// Handler processes an incoming JSON-RPC request or notification.
type Handler func(ctx context.Context, method string, params RawMessage) (result interface{}, err error)

// NotificationHandler processes an incoming JSON-RPC notification.
type NotificationHandler func(ctx context.Context, method string, params RawMessage)

// Conn is a bidirectional JSON-RPC 2.0 connection over a message channel.
type Conn struct {
	reader  MessageReader
	writer  MessageWriter
	handler Handler
	notif   NotificationHandler
	logger  *slog.Logger

	strategy ConnectionStrategy
	inflight chan struct{}

	// ctx is the connection lifetime: handlers receive it and it is
	// cancelled when the connection closes or the Run context ends.
	ctx    context.Context
	cancel context.CancelFunc

	idMu   sync.Mutex
	lastID int64

	pending   sync.Map // formatted id -> chan *Response
	listen    sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// NewConn creates a connection over the given channel. handler serves
// inbound requests, notif inbound notifications (falling back to handler
// when nil). logger must not be nil; opts.ConnectionStrategy may be.
func NewConn(reader MessageReader, writer MessageWriter, handler Handler, notif NotificationHandler, logger *slog.Logger, opts ConnectionOptions) *Conn {
	strategy := opts.ConnectionStrategy
	if strategy == nil {
		strategy = sequentialStrategy{}
	}
	c := &Conn{
		reader:   reader,
		writer:   writer,
		handler:  handler,
		notif:    notif,
		logger:   logger,
		strategy: strategy,
		done:     make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	if n := strategy.MaxInflight(); n > 0 {
		c.inflight = make(chan struct{}, n)
	}
	reader.OnClose(func() { c.Close() })
	return c
}

// Run starts message delivery and blocks until the connection or context
// ends. It may be called once; concurrent Call/Notify are allowed while
// Run is blocked. When ctx ends, in-flight handlers see their context
// cancelled.
func (c *Conn) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()
	c.Start()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return nil
	}
}

// Start begins message delivery without blocking.
func (c *Conn) Start() {
	c.listen.Do(func() {
		c.reader.Listen(func(msg Message) {
			c.dispatch(msg)
		})
	})
}

func (c *Conn) dispatch(msg Message) {
	switch m := msg.(type) {
	case *Request:
		go c.handleRequest(m)
	case *Notification:
		go c.handleNotification(m)
	case *Response:
		c.handleResponse(m)
	}
}

func (c *Conn) handleRequest(req *Request) {
	ctx := c.ctx
	result, err := c.handler(ctx, req.Method, req.Params)
	resp := NewResponse(req.ID, result, err)
	if werr := c.writer.Write(ctx, resp); werr != nil {
		c.logger.Error("sending response failed",
			"method", req.Method,
			"error", werr,
		)
	}
}

func (c *Conn) handleNotification(notif *Notification) {
	ctx := c.ctx
	if c.notif != nil {
		c.notif(ctx, notif.Method, notif.Params)
	} else if c.handler != nil {
		c.handler(ctx, notif.Method, notif.Params)
	}
}

func (c *Conn) handleResponse(resp *Response) {
	if ch, ok := c.pending.LoadAndDelete(formatID(resp.ID)); ok {
		ch.(chan *Response) <- resp
	} else {
		c.logger.Debug("dropping response with unknown id", "id", resp.ID.Value())
	}
}

// Call sends a request and waits for its response. Request ids and
// backpressure follow the connection strategy.
func (c *Conn) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	if c.inflight != nil {
		select {
		case c.inflight <- struct{}{}:
			defer func() { <-c.inflight }()
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, fmt.Errorf("connection closed")
		}
	}

	c.idMu.Lock()
	c.lastID = c.strategy.NextRequestID(c.lastID)
	id := IntID(c.lastID)
	c.idMu.Unlock()

	paramsData, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	req := &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	ch := make(chan *Response, 1)
	c.pending.Store(formatID(id), ch)
	defer c.pending.Delete(formatID(id))

	if err := c.writer.Write(ctx, req); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("connection closed")
	}
}

// Notify sends a notification (no response expected).
func (c *Conn) Notify(ctx context.Context, method string, params interface{}) error {
	paramsData, err := marshalParams(params)
	if err != nil {
		return err
	}
	return c.writer.Write(ctx, &Notification{
		JSONRPC: Version,
		Method:  method,
		Params:  paramsData,
	})
}

// Close terminates the connection and disposes the underlying channel.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
		c.writer.Dispose()
	})
}

// Done is closed when the connection terminates.
func (c *Conn) Done() <-chan struct{} { return c.done }

func marshalParams(v interface{}) (RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling params: %w", err)
	}
	return data, nil
}

func formatID(id ID) string {
	switch v := id.Value().(type) {
	case int64:
		return fmt.Sprintf("n:%d", v)
	case string:
		return fmt.Sprintf("s:%s", v)
	default:
		return "null"
	}
}
