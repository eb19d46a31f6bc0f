package transport

import (
	"io"
	"os"
)

// Stdio returns a byte stream backed by os.Stdin and os.Stdout, the
// canonical raw-stream input for a stream connection.
func Stdio() io.ReadWriteCloser {
	return &stdioStream{in: os.Stdin, out: os.Stdout}
}

type stdioStream struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s *stdioStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioStream) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *stdioStream) Close() error {
	s.in.Close()
	return s.out.Close()
}
