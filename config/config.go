// Package config provides declarative, hot-reloadable transport
// configuration: which transport kind to use, where its rendezvous point
// lives, and how the channel is encoded.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wireline-rpc/wireline/transport"
)

// Transport kinds accepted in config files.
const (
	KindStdio     = "stdio"
	KindPipe      = "pipe"
	KindSocket    = "socket"
	KindWebSocket = "websocket"
)

// Config selects and parameterizes a transport.
type Config struct {
	// Kind is one of stdio, pipe, socket, websocket.
	Kind string `toml:"kind"`
	// Address is the pipe path or WebSocket address. An empty pipe
	// address is filled in by EnsureAddress.
	Address string `toml:"address"`
	// Port is the loopback port for socket transports.
	Port int `toml:"port"`
	// Encoding is the channel text encoding; empty means utf-8.
	Encoding string `toml:"encoding"`
	// PipePrefix overrides the generated pipe name prefix.
	PipePrefix string `toml:"pipe_prefix"`
	// MaxInflight bounds concurrently outstanding outbound requests;
	// zero means unlimited.
	MaxInflight int `toml:"max_inflight"`
}

// Default returns the stdio configuration.
func Default() *Config {
	return &Config{Kind: KindStdio, Encoding: string(transport.UTF8)}
}

// Validate checks kind, encoding, and addressing coherence.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindStdio, KindPipe:
	case KindSocket:
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("socket port %d out of range", c.Port)
		}
	case KindWebSocket:
		if c.Address == "" {
			return fmt.Errorf("websocket transport requires an address")
		}
	default:
		return fmt.Errorf("unknown transport kind %q", c.Kind)
	}
	if !transport.Encoding(c.Encoding).Valid() {
		return fmt.Errorf("unsupported encoding %q", c.Encoding)
	}
	return nil
}

// ChannelEncoding returns the configured encoding tag.
func (c *Config) ChannelEncoding() transport.Encoding {
	if c.Encoding == "" {
		return transport.UTF8
	}
	return transport.Encoding(c.Encoding)
}

// EnsureAddress fills in a generated pipe address when none is
// configured, and returns the address in effect.
func (c *Config) EnsureAddress() (string, error) {
	if c.Kind == KindPipe && c.Address == "" {
		addr, err := transport.PipeNameGenerator{Prefix: c.PipePrefix}.Generate()
		if err != nil {
			return "", err
		}
		c.Address = addr
	}
	return c.Address, nil
}

// Load reads a TOML config file. A missing file yields the defaults; a
// present file is validated before being returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}
