package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/capture-protocol/capture-go/pkg/log"
)

// ErrTextMessage is returned by Receive when the peer sends a text message.
var ErrTextMessage = errors.New("unexpected text message")

// closeGrace bounds the close handshake write.
const closeGrace = time.Second

// wsConn carries one frame per binary WebSocket message.
type wsConn struct {
	id   string
	conn *websocket.Conn
	max  int
	flog *frameLog

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(id string, c *websocket.Conn, maxMessageSize uint32, logger log.Logger) *wsConn {
	if maxMessageSize == 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	// Frame payload plus websocket header slack.
	c.SetReadLimit(int64(maxMessageSize) + 16)
	wc := &wsConn{
		id:     id,
		conn:   c,
		max:    int(maxMessageSize),
		closed: make(chan struct{}),
	}
	if logger != nil {
		wc.flog = &frameLog{logger: logger, sessionID: id, remote: wc.RemoteAddr()}
	}
	return wc
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *wsConn) Send(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if len(data) > c.max {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.max)
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to send WebSocket message: %w", err)
	}
	c.flog.log(data, log.DirectionOut)
	return nil
}

func (c *wsConn) Receive() ([]byte, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		select {
		case <-c.closed:
			return nil, ErrClosed
		default:
		}
		var ce *websocket.CloseError
		if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("WebSocket connection error: %w", err)
	}
	if mt != websocket.BinaryMessage {
		return nil, ErrTextMessage
	}
	if len(data) == 0 {
		return nil, ErrMessageEmpty
	}
	if len(data) > c.max {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), c.max)
	}
	c.flog.log(data, log.DirectionIn)
	return data, nil
}

// Close sends a normal close frame, then closes the socket.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
