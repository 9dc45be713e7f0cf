package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/capture-protocol/capture-go/pkg/log"
)

// DefaultPort is the default capture service port.
const DefaultPort = 7420

// ClientConfig configures Dial.
type ClientConfig struct {
	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout applies when ctx carries no deadline (default: 10s).
	ConnectTimeout time.Duration

	// Logger receives frame events (optional).
	Logger log.Logger
}

func (c *ClientConfig) applyDefaults() {
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Dial connects to a capture service. Addresses with a ws:// or wss://
// scheme use WebSocket framing; anything else ("host:port" or
// "tcp://host:port") is a length-prefixed TCP stream.
func Dial(ctx context.Context, address string, config ClientConfig) (Conn, error) {
	config.applyDefaults()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	if isWebSocketURL(address) {
		u, err := url.Parse(address)
		if err != nil {
			return nil, fmt.Errorf("invalid WebSocket URL: %w", err)
		}
		if u.Path == "" {
			u.Path = "/"
		}
		c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to WebSocket server: %w", err)
		}
		return newWSConn(id, c, config.MaxMessageSize, config.Logger), nil
	}

	address = strings.TrimPrefix(address, "tcp://")
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, fmt.Sprint(DefaultPort))
	}
	var dialer net.Dialer
	c, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewStreamConn(id, c, config.MaxMessageSize, config.Logger), nil
}

func isWebSocketURL(address string) bool {
	return strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://")
}
