package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Session errors.
var (
	ErrAlreadyOpen = errors.New("session already open")
	ErrNotOpen     = errors.New("session not open")
	ErrNoDevice    = errors.New("no device")
	ErrInvalidArg  = errors.New("invalid argument")
)

// State is the session lifecycle state.
type State uint8

const (
	// StateClosed - no device-layer session. Requests are queued, not sent.
	StateClosed State = iota

	// StateOpening - handshake in progress.
	StateOpening

	// StateOpen - handshake acknowledged, requests are dispatched.
	StateOpen

	// StateClosing - abort requested, waiting for Terminate.
	StateClosing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpening:
		return "OPENING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Session.
type Config struct {
	// AppInfo is sent to the device layer during the handshake.
	AppInfo wire.AppInfo

	// PlaceholderLabel names the synthetic record listed while no scanner is
	// connected. Empty disables the placeholder.
	PlaceholderLabel string

	// ReceiveTimeout bounds each WaitForMessage call.
	ReceiveTimeout time.Duration

	// ReceiveInterval is the tick used by Run.
	ReceiveInterval time.Duration

	// SessionID identifies this session in protocol logs.
	// Generated when empty.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, no logging is performed.
	Logger *slog.Logger

	// ProtocolLogger receives request, message and state events.
	// If nil, no protocol logging is performed.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		ReceiveTimeout:  time.Millisecond,
		ReceiveInterval: 100 * time.Millisecond,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = d.ReceiveTimeout
	}
	if c.ReceiveInterval <= 0 {
		c.ReceiveInterval = d.ReceiveInterval
	}
	if c.SessionID == "" {
		c.SessionID = uuid.NewString()
	}
}
