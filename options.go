package wireline

import (
	"log/slog"

	"github.com/wireline-rpc/wireline/jsonrpc"
	"github.com/wireline-rpc/wireline/middleware"
	"github.com/wireline-rpc/wireline/transport"
)

// Option configures connection construction.
type Option func(*connConfig)

type connConfig struct {
	logger   *slog.Logger
	encoding transport.Encoding
	handler  jsonrpc.Handler
	notif    jsonrpc.NotificationHandler
	mws      []middleware.Middleware
	opts     jsonrpc.ConnectionOptions
}

// WithLogger sets the connection logger. Without it, logging is a no-op.
func WithLogger(l *slog.Logger) Option {
	return func(c *connConfig) { c.logger = l }
}

// WithEncoding sets the text encoding used when wrapping raw byte streams.
// The default is UTF-8. Ignored by NewConnection, whose channel already
// fixed its encoding.
func WithEncoding(enc transport.Encoding) Option {
	return func(c *connConfig) { c.encoding = enc }
}

// WithHandler sets the handler for inbound requests.
func WithHandler(h jsonrpc.Handler) Option {
	return func(c *connConfig) { c.handler = h }
}

// WithNotificationHandler sets the handler for inbound notifications.
// Without it, notifications fall through to the request handler.
func WithNotificationHandler(h jsonrpc.NotificationHandler) Option {
	return func(c *connConfig) { c.notif = h }
}

// WithMiddleware adds middleware to the dispatch chain; the first
// middleware given is outermost. The chain wraps both request and
// notification dispatch.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *connConfig) { c.mws = append(c.mws, mws...) }
}

// WithConnectionOptions sets the full connection options structure.
func WithConnectionOptions(opts jsonrpc.ConnectionOptions) Option {
	return func(c *connConfig) { c.opts = opts }
}

// WithConnectionStrategy sets a bare connection strategy. Equivalent to
// WithConnectionOptions(jsonrpc.ConnectionOptions{ConnectionStrategy: s}).
func WithConnectionStrategy(s jsonrpc.ConnectionStrategy) Option {
	return func(c *connConfig) {
		c.opts = jsonrpc.ConnectionOptions{ConnectionStrategy: s}
	}
}
