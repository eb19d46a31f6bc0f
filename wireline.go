package wireline

import (
	"context"
	"io"
	"log/slog"

	"github.com/wireline-rpc/wireline/jsonrpc"
	"github.com/wireline-rpc/wireline/middleware"
	"github.com/wireline-rpc/wireline/transport"
)

// NewConnection builds a message connection over an already-adapted
// reader/writer pair, such as one produced by a transport bootstrap or a
// process channel. The factory performs no I/O: it normalizes options,
// supplies the default no-op logger and handlers, and delegates to the
// jsonrpc connection constructor.
func NewConnection(reader transport.MessageReader, writer transport.MessageWriter, opts ...Option) *jsonrpc.Conn {
	cfg := newConnConfig(opts)
	return jsonrpc.NewConn(reader, writer, cfg.dispatchHandler(), cfg.notificationHandler(), cfg.logger, cfg.opts)
}

// NewStreamConnection builds a message connection over raw byte streams,
// wrapping them in a Content-Length framed channel with the configured
// encoding (UTF-8 unless WithEncoding says otherwise). out is closed when
// the connection's writer is disposed. Given equivalent streams, the
// resulting connection behaves identically to one built from a pre-adapted
// pair via NewConnection.
func NewStreamConnection(in io.Reader, out io.WriteCloser, opts ...Option) *jsonrpc.Conn {
	cfg := newConnConfig(opts)
	reader := transport.NewStreamReader(in, cfg.encoding)
	writer := transport.NewStreamWriter(out, out, cfg.encoding)
	return jsonrpc.NewConn(reader, writer, cfg.dispatchHandler(), cfg.notificationHandler(), cfg.logger, cfg.opts)
}

// NewChannelConnection is shorthand for NewConnection over a channel.
func NewChannelConnection(ch transport.Channel, opts ...Option) *jsonrpc.Conn {
	return NewConnection(ch.Reader, ch.Writer, opts...)
}

func newConnConfig(opts []Option) *connConfig {
	cfg := &connConfig{
		encoding: transport.UTF8,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.handler == nil {
		cfg.handler = func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: "method not found: " + method}
		}
	}
	return cfg
}

// dispatchHandler returns the request handler with the middleware chain
// applied, first middleware outermost.
func (c *connConfig) dispatchHandler() jsonrpc.Handler {
	if len(c.mws) == 0 {
		return c.handler
	}
	chain := middleware.Chain(c.mws...)
	wrapped := chain(middleware.Handler(c.handler))
	return jsonrpc.Handler(wrapped)
}

// notificationHandler returns the notification handler with the same
// middleware chain applied, so recovery, logging, and tracing cover
// notifications too. A nil handler stays nil: the connection then falls
// back to the request handler, which is already wrapped.
func (c *connConfig) notificationHandler() jsonrpc.NotificationHandler {
	if c.notif == nil || len(c.mws) == 0 {
		return c.notif
	}
	chain := middleware.Chain(c.mws...)
	wrapped := chain(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		c.notif(ctx, method, params)
		return nil, nil
	})
	return func(ctx context.Context, method string, params jsonrpc.RawMessage) {
		wrapped(ctx, method, params)
	}
}
