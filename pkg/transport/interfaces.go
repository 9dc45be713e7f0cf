package transport

import (
	"context"
	"net"
)

// Listener is the server side of a capture transport.
// Implemented by Server.
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Listener        = (*Server)(nil)
	_ FrameReadWriter = (*Framer)(nil)
	_ Conn            = (*streamConn)(nil)
	_ Conn            = (*wsConn)(nil)
)
