//go:build windows

package transport

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// On Windows pipe addresses name native named pipes (\\.\pipe\...).

func listenPipe(addr string) (net.Listener, error) {
	return winio.ListenPipe(addr, nil)
}

func dialPipe(ctx context.Context, addr string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, addr)
}
