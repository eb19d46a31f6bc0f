package transport

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

func collectMessages(r MessageReader) <-chan jsonrpc.Message {
	out := make(chan jsonrpc.Message, 16)
	r.Listen(func(msg jsonrpc.Message) { out <- msg })
	return out
}

func waitMessage(t *testing.T, ch <-chan jsonrpc.Message) jsonrpc.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestStreamChannelRoundTrip(t *testing.T) {
	a, b := MemoryPipe()
	chA := NewStreamChannel(a, UTF8)
	chB := NewStreamChannel(b, UTF8)

	fromA := collectMessages(chB.Reader)
	fromB := collectMessages(chA.Reader)

	ctx := context.Background()
	if err := chA.Writer.Write(ctx, &jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: "a-to-b"}); err != nil {
		t.Fatalf("write a->b: %v", err)
	}
	if err := chB.Writer.Write(ctx, &jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: "b-to-a"}); err != nil {
		t.Fatalf("write b->a: %v", err)
	}

	if n, ok := waitMessage(t, fromA).(*jsonrpc.Notification); !ok || n.Method != "a-to-b" {
		t.Errorf("b received %#v, want notification a-to-b", n)
	}
	if n, ok := waitMessage(t, fromB).(*jsonrpc.Notification); !ok || n.Method != "b-to-a" {
		t.Errorf("a received %#v, want notification b-to-a", n)
	}
}

func TestStreamChannelUTF16(t *testing.T) {
	for _, enc := range []Encoding{UTF16LE, UTF16BE} {
		t.Run(string(enc), func(t *testing.T) {
			a, b := MemoryPipe()
			chA := NewStreamChannel(a, enc)
			chB := NewStreamChannel(b, enc)

			received := collectMessages(chB.Reader)
			err := chA.Writer.Write(context.Background(), &jsonrpc.Notification{
				JSONRPC: jsonrpc.Version,
				Method:  "héllo",
			})
			if err != nil {
				t.Fatalf("write: %v", err)
			}
			if n, ok := waitMessage(t, received).(*jsonrpc.Notification); !ok || n.Method != "héllo" {
				t.Errorf("received %#v, want method héllo", n)
			}
		})
	}
}

func TestStreamReaderCloseNotification(t *testing.T) {
	a, b := MemoryPipe()
	reader := NewStreamReader(b, UTF8)

	closed := make(chan struct{})
	reader.OnClose(func() { close(closed) })
	reader.Listen(func(jsonrpc.Message) {})

	a.Close()
	b.Close()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close notification never fired")
	}
}

// flakyWriter fails the first n writes, then succeeds.
type flakyWriter struct {
	fails int32
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if atomic.AddInt32(&w.fails, -1) >= 0 {
		return 0, errors.New("transport send failed")
	}
	return len(p), nil
}

func TestStreamWriterErrorCount(t *testing.T) {
	fw := &flakyWriter{fails: 2}
	w := NewStreamWriter(fw, nil, UTF8)

	var events []WriteErrorEvent
	w.OnError(func(ev WriteErrorEvent) { events = append(events, ev) })

	msg := &jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: "m"}
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		err := w.Write(ctx, msg)
		if err == nil {
			t.Fatalf("write %d: expected failure", i)
		}
		var werr *WriteError
		if !errors.As(err, &werr) {
			t.Fatalf("write %d: error %v is not a *WriteError", i, err)
		}
		if werr.Count != i {
			t.Errorf("write %d: count = %d, want %d", i, werr.Count, i)
		}
	}

	if err := w.Write(ctx, msg); err != nil {
		t.Fatalf("third write should succeed: %v", err)
	}

	// Count resets to zero after a success: a new failure starts at 1.
	fw.fails = 1
	err := w.Write(ctx, msg)
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
	if werr.Count != 1 {
		t.Errorf("count after reset = %d, want 1", werr.Count)
	}

	if len(events) != 3 {
		t.Errorf("error events = %d, want 3", len(events))
	}
}

// Error callbacks fire outside the writer's lock, so a callback may call
// back into the writer without deadlocking.
func TestStreamWriterErrorCallbackMayWrite(t *testing.T) {
	fw := &flakyWriter{fails: 1}
	w := NewStreamWriter(fw, nil, UTF8)
	msg := &jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: "m"}

	var nested error
	reentered := make(chan struct{})
	w.OnError(func(ev WriteErrorEvent) {
		nested = w.Write(context.Background(), msg)
		close(reentered)
	})

	done := make(chan error, 1)
	go func() { done <- w.Write(context.Background(), msg) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("first write should fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("write deadlocked while firing error callbacks")
	}
	select {
	case <-reentered:
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never ran")
	}
	if nested != nil {
		t.Errorf("write from inside the callback failed: %v", nested)
	}
}

// countingCloser records how many times it is closed.
type countingCloser struct {
	closes int32
}

func (c *countingCloser) Close() error {
	atomic.AddInt32(&c.closes, 1)
	return nil
}

func TestStreamWriterDisposeIdempotent(t *testing.T) {
	cc := &countingCloser{}
	w := NewStreamWriter(io.Discard, cc, UTF8)

	var closes int32
	w.OnClose(func() { atomic.AddInt32(&closes, 1) })

	w.Dispose()
	w.Dispose()

	if got := atomic.LoadInt32(&cc.closes); got != 1 {
		t.Errorf("underlying endpoint closed %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&closes); got != 1 {
		t.Errorf("close callback fired %d times, want 1", got)
	}
}

func TestStreamReaderMalformedPayloadKeepsStream(t *testing.T) {
	a, b := MemoryPipe()
	reader := NewStreamReader(b, UTF8)

	var readErrs int32
	reader.OnError(func(error) { atomic.AddInt32(&readErrs, 1) })
	received := collectMessages(reader)

	// A framed payload that is not JSON, followed by a valid one.
	io.WriteString(a, "Content-Length: 9\r\n\r\nnot-json!")
	io.WriteString(a, "Content-Length: 45\r\n\r\n"+`{"jsonrpc":"2.0","method":"still-alive"}     `)

	if n, ok := waitMessage(t, received).(*jsonrpc.Notification); !ok || n.Method != "still-alive" {
		t.Errorf("received %#v, want notification still-alive", n)
	}
	if atomic.LoadInt32(&readErrs) == 0 {
		t.Error("malformed payload did not raise an error event")
	}
}
