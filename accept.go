package wireline

import (
	"context"
	"fmt"

	"github.com/wireline-rpc/wireline/config"
	"github.com/wireline-rpc/wireline/jsonrpc"
	"github.com/wireline-rpc/wireline/transport"
)

// Accept stands up the rendezvous point described by cfg, waits for the
// peer to connect, and returns the connection. For the stdio kind there is
// no rendezvous and the connection wraps the process's standard streams
// directly. cfg.MaxInflight, when set, becomes the default connection
// strategy unless an explicit option overrides it.
func Accept(ctx context.Context, cfg *config.Config, opts ...Option) (*jsonrpc.Conn, error) {
	opts = withConfigDefaults(cfg, opts)
	enc := cfg.ChannelEncoding()

	switch cfg.Kind {
	case config.KindStdio:
		stdio := transport.Stdio()
		return NewStreamConnection(stdio, stdio, opts...), nil

	case config.KindPipe:
		addr, err := cfg.EnsureAddress()
		if err != nil {
			return nil, err
		}
		bootstrap, err := transport.NewClientPipeTransport(addr, enc)
		if err != nil {
			return nil, err
		}
		ch, err := bootstrap.OnConnected(ctx)
		if err != nil {
			return nil, err
		}
		return NewChannelConnection(ch, opts...), nil

	case config.KindSocket:
		bootstrap, err := transport.NewClientSocketTransport(cfg.Port, enc)
		if err != nil {
			return nil, err
		}
		ch, err := bootstrap.OnConnected(ctx)
		if err != nil {
			return nil, err
		}
		return NewChannelConnection(ch, opts...), nil

	case config.KindWebSocket:
		bootstrap, err := transport.NewClientWebSocketTransport(cfg.Address, enc)
		if err != nil {
			return nil, err
		}
		ch, err := bootstrap.OnConnected(ctx)
		if err != nil {
			return nil, err
		}
		return NewChannelConnection(ch, opts...), nil
	}
	return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
}

// Dial connects to the rendezvous point described by cfg and returns the
// connection.
func Dial(ctx context.Context, cfg *config.Config, opts ...Option) (*jsonrpc.Conn, error) {
	opts = withConfigDefaults(cfg, opts)
	enc := cfg.ChannelEncoding()

	var (
		ch  transport.Channel
		err error
	)
	switch cfg.Kind {
	case config.KindStdio:
		stdio := transport.Stdio()
		return NewStreamConnection(stdio, stdio, opts...), nil
	case config.KindPipe:
		ch, err = transport.NewServerPipeTransport(ctx, cfg.Address, enc)
	case config.KindSocket:
		ch, err = transport.NewServerSocketTransport(ctx, cfg.Port, enc)
	case config.KindWebSocket:
		ch, err = transport.NewServerWebSocketTransport(ctx, cfg.Address, "http://localhost/", enc)
	default:
		err = fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return NewChannelConnection(ch, opts...), nil
}

// withConfigDefaults prepends config-derived options so explicit caller
// options take precedence.
func withConfigDefaults(cfg *config.Config, opts []Option) []Option {
	defaults := []Option{WithEncoding(cfg.ChannelEncoding())}
	if cfg.MaxInflight > 0 {
		defaults = append(defaults, WithConnectionStrategy(jsonrpc.BoundedStrategy{Limit: cfg.MaxInflight}))
	}
	return append(defaults, opts...)
}
