package transport

import (
	"bytes"
	"io"
	"sync"
)

// MemoryPipe creates a pair of connected in-memory byte streams. Bytes
// written to one side are readable from the other. Used by tests and the
// wirelinetest harness in place of a real pipe or socket.
func MemoryPipe() (a io.ReadWriteCloser, b io.ReadWriteCloser) {
	ab := &memBuffer{}
	ba := &memBuffer{}
	return &memStream{r: ba, w: ab}, &memStream{r: ab, w: ba}
}

type memStream struct {
	r *memBuffer
	w *memBuffer
}

func (m *memStream) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *memStream) Write(p []byte) (int, error) { return m.w.Write(p) }
func (m *memStream) Close() error {
	m.r.Close()
	m.w.Close()
	return nil
}

// memBuffer is a thread-safe, blocking in-memory byte queue.
type memBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
	cond   *sync.Cond
}

func (b *memBuffer) init() {
	if b.cond == nil {
		b.cond = sync.NewCond(&b.mu)
	}
}

func (b *memBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	n, err := b.buf.Write(data)
	b.cond.Signal()
	return n, err
}

func (b *memBuffer) Read(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	for b.buf.Len() == 0 {
		if b.closed {
			return 0, io.EOF
		}
		b.cond.Wait()
	}
	return b.buf.Read(data)
}

func (b *memBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.closed = true
	b.cond.Broadcast()
}
