//go:build !windows

package transport

import (
	"context"
	"net"
)

// On non-Windows platforms pipe addresses are unix domain socket paths
// inside the system temporary directory.

func listenPipe(addr string) (net.Listener, error) {
	return net.Listen("unix", addr)
}

func dialPipe(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", addr)
}
