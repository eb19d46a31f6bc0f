package wireline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wireline-rpc/wireline"
	"github.com/wireline-rpc/wireline/jsonrpc"
	"github.com/wireline-rpc/wireline/middleware"
	"github.com/wireline-rpc/wireline/transport"
)

func echo(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
	if params == nil {
		return map[string]string{"method": method}, nil
	}
	return params, nil
}

func callPing(t *testing.T, conn *jsonrpc.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := conn.Call(ctx, "ping", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("error response: %v", resp.Error)
	}
	var result map[string]string
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return result["method"]
}

// Raw streams and a pre-adapted pair over the same transport must produce
// connections with identical observable behavior.
func TestStreamAndAdaptedConnectionsEquivalent(t *testing.T) {
	t.Run("raw streams", func(t *testing.T) {
		a, b := transport.MemoryPipe()
		server := wireline.NewStreamConnection(b, b, wireline.WithHandler(echo))
		server.Start()
		defer server.Close()

		client := wireline.NewStreamConnection(a, a)
		client.Start()
		defer client.Close()

		if got := callPing(t, client); got != "ping" {
			t.Errorf("result = %q, want ping", got)
		}
	})

	t.Run("pre-adapted pair", func(t *testing.T) {
		a, b := transport.MemoryPipe()
		chA := transport.NewStreamChannel(a, transport.UTF8)
		chB := transport.NewStreamChannel(b, transport.UTF8)

		server := wireline.NewConnection(chB.Reader, chB.Writer, wireline.WithHandler(echo))
		server.Start()
		defer server.Close()

		client := wireline.NewConnection(chA.Reader, chA.Writer)
		client.Start()
		defer client.Close()

		if got := callPing(t, client); got != "ping" {
			t.Errorf("result = %q, want ping", got)
		}
	})
}

// recordingStrategy records issued request ids.
type recordingStrategy struct {
	mu  sync.Mutex
	ids []int64
}

func (s *recordingStrategy) NextRequestID(prev int64) int64 {
	next := prev + 1
	s.mu.Lock()
	s.ids = append(s.ids, next)
	s.mu.Unlock()
	return next
}

func (s *recordingStrategy) MaxInflight() int { return 0 }

// A bare strategy option must behave exactly like the full options
// structure wrapping the same strategy.
func TestBareStrategyNormalization(t *testing.T) {
	run := func(t *testing.T, opt func(jsonrpc.ConnectionStrategy) wireline.Option) []int64 {
		a, b := transport.MemoryPipe()
		server := wireline.NewStreamConnection(b, b, wireline.WithHandler(echo))
		server.Start()
		defer server.Close()

		strategy := &recordingStrategy{}
		client := wireline.NewStreamConnection(a, a, opt(strategy))
		client.Start()
		defer client.Close()

		callPing(t, client)
		callPing(t, client)
		strategy.mu.Lock()
		defer strategy.mu.Unlock()
		return append([]int64(nil), strategy.ids...)
	}

	bare := run(t, func(s jsonrpc.ConnectionStrategy) wireline.Option {
		return wireline.WithConnectionStrategy(s)
	})
	full := run(t, func(s jsonrpc.ConnectionStrategy) wireline.Option {
		return wireline.WithConnectionOptions(jsonrpc.ConnectionOptions{ConnectionStrategy: s})
	})

	if len(bare) != len(full) {
		t.Fatalf("bare issued %v, full issued %v", bare, full)
	}
	for i := range bare {
		if bare[i] != full[i] {
			t.Errorf("id[%d]: bare %d, full %d", i, bare[i], full[i])
		}
	}
}

// The middleware chain covers notification dispatch too: a panicking
// notification handler is contained by Recovery and the connection keeps
// serving afterwards.
func TestRecoveryCoversNotificationHandler(t *testing.T) {
	a, b := transport.MemoryPipe()

	handled := make(chan string, 2)
	server := wireline.NewStreamConnection(b, b,
		wireline.WithHandler(echo),
		wireline.WithMiddleware(middleware.Recovery(slog.New(slog.DiscardHandler))),
		wireline.WithNotificationHandler(func(ctx context.Context, method string, params jsonrpc.RawMessage) {
			if method == "explode" {
				panic("boom")
			}
			handled <- method
		}))
	server.Start()
	defer server.Close()

	client := wireline.NewStreamConnection(a, a)
	client.Start()
	defer client.Close()

	ctx := context.Background()
	if err := client.Notify(ctx, "explode", nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := client.Notify(ctx, "after", nil); err != nil {
		t.Fatalf("notify: %v", err)
	}

	select {
	case method := <-handled:
		if method != "after" {
			t.Errorf("handled %q, want after", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification after the panic never delivered")
	}

	// Requests still round-trip on the same connection.
	if got := callPing(t, client); got != "ping" {
		t.Errorf("result = %q, want ping", got)
	}
}

func TestDefaultHandlerRejectsUnknownMethod(t *testing.T) {
	a, b := transport.MemoryPipe()
	// No handler: the default answers method-not-found.
	server := wireline.NewStreamConnection(b, b)
	server.Start()
	defer server.Close()

	client := wireline.NewStreamConnection(a, a)
	client.Start()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Call(ctx, "anything", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != jsonrpc.CodeMethodNotFound {
		t.Errorf("response = %v, want method-not-found", resp.Error)
	}
}

func TestStreamConnectionEncodingOption(t *testing.T) {
	a, b := transport.MemoryPipe()
	server := wireline.NewStreamConnection(b, b,
		wireline.WithHandler(echo),
		wireline.WithEncoding(transport.UTF16LE))
	server.Start()
	defer server.Close()

	client := wireline.NewStreamConnection(a, a,
		wireline.WithEncoding(transport.UTF16LE))
	client.Start()
	defer client.Close()

	if got := callPing(t, client); got != "ping" {
		t.Errorf("result = %q, want ping", got)
	}
}
