package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// NewStreamChannel adapts a bidirectional byte stream into a message
// channel using Content-Length framing. The writer owns the stream:
// disposing it closes rwc exactly once.
func NewStreamChannel(rwc io.ReadWriteCloser, enc Encoding) Channel {
	return Channel{
		Reader: NewStreamReader(rwc, enc),
		Writer: NewStreamWriter(rwc, rwc, enc),
	}
}

// StreamReader decodes Content-Length framed messages from a byte stream.
// The sequence of messages is infinite until the stream ends or errors.
type StreamReader struct {
	br  *bufio.Reader
	enc Encoding

	listenOnce sync.Once
	errs       errorNotifier[error]
	closed     closeNotifier
}

// NewStreamReader wraps the read side of a byte stream.
func NewStreamReader(r io.Reader, enc Encoding) *StreamReader {
	return &StreamReader{
		br:  bufio.NewReaderSize(r, 64*1024),
		enc: enc,
	}
}

// Listen starts the read loop in a background goroutine. Messages are
// delivered to cb one at a time, in stream order. Subsequent calls are
// no-ops. The loop ends, firing the close callback, when the stream ends
// or a framing error occurs.
func (r *StreamReader) Listen(cb func(msg jsonrpc.Message)) {
	r.listenOnce.Do(func() {
		go r.readLoop(cb)
	})
}

func (r *StreamReader) OnError(cb func(err error)) { r.errs.on(cb) }
func (r *StreamReader) OnClose(cb func())          { r.closed.on(cb) }

func (r *StreamReader) readLoop(cb func(msg jsonrpc.Message)) {
	defer r.closed.fire()
	for {
		body, err := r.readFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				r.errs.fire(err)
			}
			return
		}
		body, err = r.enc.decodeBody(body)
		if err != nil {
			r.errs.fire(fmt.Errorf("decoding body: %w", err))
			return
		}
		msg, err := jsonrpc.DecodeMessage(body)
		if err != nil {
			// Malformed payloads are reported but do not kill the stream.
			r.errs.fire(err)
			continue
		}
		cb(msg)
	}
}

// readFrame reads one Content-Length framed message body.
func (r *StreamReader) readFrame() ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && contentLen < 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		val := strings.TrimSpace(line[colon+1:])

		if strings.EqualFold(key, "Content-Length") {
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length %q: %w", val, err)
			}
			contentLen = n
		}
	}

	if contentLen < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLen)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// StreamWriter encodes messages onto a byte stream with Content-Length
// framing. It owns the underlying endpoint; Dispose closes it exactly once.
type StreamWriter struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	enc      Encoding
	errCount int

	disposeOnce sync.Once
	errs        errorNotifier[WriteErrorEvent]
	closed      closeNotifier
}

// NewStreamWriter wraps the write side of a byte stream. closer is the
// endpoint closed on Dispose; it may equal w or be nil when the caller
// retains ownership.
func NewStreamWriter(w io.Writer, closer io.Closer, enc Encoding) *StreamWriter {
	return &StreamWriter{w: w, closer: closer, enc: enc}
}

// Write serializes msg, frames it, and flushes it to the stream. It returns
// once the transport has accepted the bytes. Failures increment the
// consecutive-failure count, fire the error callbacks, and are returned;
// the count resets to zero on the next successful write.
func (sw *StreamWriter) Write(ctx context.Context, msg jsonrpc.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sw.write(msg); err != nil {
		return sw.fail(msg, err)
	}
	return nil
}

// write serializes and flushes one framed message under the stream lock,
// resetting the consecutive-failure count on success.
func (sw *StreamWriter) write(msg jsonrpc.Message) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	body, err := sw.enc.encodeBody(data)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)

	if _, err := sw.w.Write(buf.Bytes()); err != nil {
		return err
	}
	sw.errCount = 0
	return nil
}

// fail records one more consecutive failure and notifies error callbacks.
// The lock is released before the callbacks run, so a callback may call
// back into the writer.
func (sw *StreamWriter) fail(msg jsonrpc.Message, err error) error {
	sw.mu.Lock()
	sw.errCount++
	n := sw.errCount
	sw.mu.Unlock()
	sw.errs.fire(WriteErrorEvent{Err: err, Msg: msg, Count: n})
	return &WriteError{Err: err, Msg: msg, Count: n}
}

func (sw *StreamWriter) OnError(cb func(ev WriteErrorEvent)) { sw.errs.on(cb) }
func (sw *StreamWriter) OnClose(cb func())                   { sw.closed.on(cb) }

// Dispose closes the underlying endpoint. Idempotent: a second call is a
// no-op and never double-closes.
func (sw *StreamWriter) Dispose() {
	sw.disposeOnce.Do(func() {
		if sw.closer != nil {
			sw.closer.Close()
		}
		sw.closed.fire()
	})
}
