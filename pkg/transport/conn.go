package transport

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/capture-protocol/capture-go/pkg/log"
)

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("connection closed")

// Conn is one framed, bidirectional connection. Send is safe for concurrent
// use; Receive must be called from a single goroutine and blocks until a
// frame arrives or the connection fails. Close unblocks Receive.
type Conn interface {
	// ID returns the connection identifier used in protocol logs.
	ID() string

	// RemoteAddr returns the peer address.
	RemoteAddr() string

	// Send writes one frame.
	Send(data []byte) error

	// Receive reads one frame. A clean shutdown by the peer returns io.EOF.
	Receive() ([]byte, error)

	// Close closes the connection. Calling Close more than once is safe.
	Close() error
}

// streamConn frames a byte stream (TCP, net.Pipe).
type streamConn struct {
	id     string
	conn   net.Conn
	framer *Framer

	closeOnce sync.Once
	closed    chan struct{}
}

// NewStreamConn wraps a net.Conn with length-prefixed framing. Frames are
// reported to logger when it is non-nil.
func NewStreamConn(id string, c net.Conn, maxMessageSize uint32, logger log.Logger) Conn {
	if maxMessageSize == 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	sc := &streamConn{
		id:     id,
		conn:   c,
		framer: NewFramerWithMaxSize(c, maxMessageSize),
		closed: make(chan struct{}),
	}
	sc.framer.SetLogger(logger, id, sc.RemoteAddr())
	return sc
}

func (c *streamConn) ID() string { return c.id }

func (c *streamConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *streamConn) Send(data []byte) error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.framer.WriteFrame(data)
}

func (c *streamConn) Receive() ([]byte, error) {
	data, err := c.framer.ReadFrame()
	if err != nil && c.isClosed() {
		return nil, ErrClosed
	}
	if errors.Is(err, io.ErrClosedPipe) {
		return nil, io.EOF
	}
	return data, err
}

func (c *streamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *streamConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
