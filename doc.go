// Package wireline builds JSON-RPC message connections over duplex
// transports: named pipes, loopback TCP sockets, WebSockets, raw byte
// streams, and native inter-process endpoints.
//
// The transport subpackage establishes channels (the listen-once,
// accept-once bootstrap plus the stream and process adapters); this
// package is the connection factory that normalizes construction options
// and hands a channel to the jsonrpc connection layer.
//
// A rendezvous between two processes looks like:
//
//	// acceptor ("client" role: opens the rendezvous point and waits)
//	addr, _ := transport.GeneratePipeName()
//	bootstrap, err := transport.NewClientPipeTransport(addr, transport.UTF8)
//	ch, err := bootstrap.OnConnected(ctx)
//	conn := wireline.NewConnection(ch.Reader, ch.Writer, wireline.WithHandler(h))
//
//	// connector ("server" role: dials the known address)
//	ch, err := transport.NewServerPipeTransport(ctx, addr, transport.UTF8)
//	conn := wireline.NewConnection(ch.Reader, ch.Writer)
package wireline
