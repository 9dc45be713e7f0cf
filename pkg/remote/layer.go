package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/capture-protocol/capture-go/pkg/connection"
	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/transport"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Dialer opens the connection used by a Layer.
type Dialer func(ctx context.Context) (transport.Conn, error)

// Config configures a Layer.
type Config struct {
	// Address of the capture service ("host:port", "tcp://..." or "ws://...").
	Address string

	// Client configures the transport connection.
	Client transport.ClientConfig

	// Dial overrides how connections are made. Address and Client are
	// ignored when set.
	Dial Dialer

	// Retry bounds connection attempts made by Open.
	Retry connection.RetryConfig

	// RequestTimeout bounds the wait for each reply (default: 5s).
	RequestTimeout time.Duration

	// MessageBuffer is the initial capacity of the asynchronous message
	// backlog (default: 256). The backlog grows past it so that replies are
	// never held up behind unread messages.
	MessageBuffer int

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// ProtocolLogger receives envelope events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config for address with three connection attempts.
func DefaultConfig(address string) Config {
	return Config{
		Address:        address,
		Retry:          connection.RetryConfig{Attempts: 3},
		RequestTimeout: 5 * time.Second,
		MessageBuffer:  256,
	}
}

// link is one open connection and its read loop.
type link struct {
	conn transport.Conn

	msgMu    sync.Mutex
	messages []*wire.Message
	arrived  chan struct{} // signalled after each push

	done chan struct{}
	err  error // read loop failure; valid once done is closed
}

// Layer is a session.DeviceLayer backed by a capture service on the
// network. Requests are correlated with their replies by sequence number;
// asynchronous messages are buffered for WaitForMessage.
type Layer struct {
	config Config
	logger *slog.Logger
	plog   log.Logger

	mu   sync.Mutex
	link *link

	seq       atomic.Uint32
	pending   map[uint32]chan *wire.Envelope
	pendingMu sync.Mutex
}

var _ session.DeviceLayer = (*Layer)(nil)

// New creates a Layer. No connection is made until Open.
func New(config Config) *Layer {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.MessageBuffer <= 0 {
		config.MessageBuffer = 256
	}
	if config.Dial == nil {
		address, client := config.Address, config.Client
		config.Dial = func(ctx context.Context) (transport.Conn, error) {
			return transport.Dial(ctx, address, client)
		}
	}
	return &Layer{
		config:  config,
		logger:  config.Logger,
		plog:    log.OrNoop(config.ProtocolLogger),
		pending: make(map[uint32]chan *wire.Envelope),
	}
}

// Open connects to the service and performs the application handshake.
func (l *Layer) Open(ctx context.Context, app wire.AppInfo) error {
	l.mu.Lock()
	if l.link != nil {
		l.mu.Unlock()
		return wire.Errorf(wire.ResultAlreadyOpen, "open: already connected")
	}
	l.mu.Unlock()

	retry := l.config.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			l.debugLog("remote: connect failed", "attempt", attempt, "retry_in", delay, "error", err)
		}
	}
	conn, err := connection.Retry(ctx, retry, l.config.Dial)
	if err != nil {
		return wire.Errorf(wire.ResultTransport, "connect: %v", err)
	}

	lk := &link{
		conn:     conn,
		messages: make([]*wire.Message, 0, l.config.MessageBuffer),
		arrived:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	l.mu.Lock()
	if l.link != nil {
		l.mu.Unlock()
		conn.Close()
		return wire.Errorf(wire.ResultAlreadyOpen, "open: already connected")
	}
	l.link = lk
	l.mu.Unlock()
	go l.readLoop(lk)

	l.debugLog("remote: connected", "conn", conn.ID(), "remote", conn.RemoteAddr())
	if _, err := l.call(ctx, &wire.Envelope{Op: wire.OpOpen, App: &app}); err != nil {
		l.drop(lk)
		return err
	}
	return nil
}

// Close ends the capture session and disconnects.
func (l *Layer) Close() error {
	lk := l.current()
	if lk == nil {
		return wire.Errorf(wire.ResultNotOpen, "close: not connected")
	}
	_, err := l.call(context.Background(), &wire.Envelope{Op: wire.OpClose})
	l.drop(lk)
	l.debugLog("remote: disconnected", "conn", lk.conn.ID())
	return err
}

// WaitForMessage returns the next buffered message. Messages received
// before a connection failure are delivered before the failure is reported.
func (l *Layer) WaitForMessage(timeout time.Duration) (*wire.Message, error) {
	lk := l.current()
	if lk == nil {
		return nil, wire.Errorf(wire.ResultNotOpen, "wait: not connected")
	}

	if msg, ok := lk.pop(); ok {
		return msg, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-lk.arrived:
			if msg, ok := lk.pop(); ok {
				return msg, nil
			}
		case <-lk.done:
			if msg, ok := lk.pop(); ok {
				return msg, nil
			}
			return nil, wire.Errorf(wire.ResultTransport, "connection lost: %v", lk.err)
		case <-timer.C:
			return nil, nil
		}
	}
}

// push appends msg to the backlog. It never blocks.
func (lk *link) push(msg *wire.Message) {
	lk.msgMu.Lock()
	lk.messages = append(lk.messages, msg)
	lk.msgMu.Unlock()
	select {
	case lk.arrived <- struct{}{}:
	default:
	}
}

// pop removes the oldest backlog message.
func (lk *link) pop() (*wire.Message, bool) {
	lk.msgMu.Lock()
	defer lk.msgMu.Unlock()
	if len(lk.messages) == 0 {
		return nil, false
	}
	msg := lk.messages[0]
	lk.messages[0] = nil
	lk.messages = lk.messages[1:]
	return msg, true
}

// backlog returns the number of unread messages.
func (lk *link) backlog() int {
	lk.msgMu.Lock()
	defer lk.msgMu.Unlock()
	return len(lk.messages)
}

func (l *Layer) GetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error {
	_, err := l.call(context.Background(), &wire.Envelope{
		Op: wire.OpGetProperty, Handle: handle, Property: prop, Token: token,
	})
	return err
}

func (l *Layer) SetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error {
	_, err := l.call(context.Background(), &wire.Envelope{
		Op: wire.OpSetProperty, Handle: handle, Property: prop, Token: token,
	})
	return err
}

func (l *Layer) OpenDevice(identity string) (wire.Handle, error) {
	reply, err := l.call(context.Background(), &wire.Envelope{Op: wire.OpOpenDevice, Identity: identity})
	if err != nil {
		return wire.HandleNone, err
	}
	return reply.Handle, nil
}

func (l *Layer) CloseDevice(handle wire.Handle) error {
	_, err := l.call(context.Background(), &wire.Envelope{Op: wire.OpCloseDevice, Handle: handle})
	return err
}

// Connected reports whether a connection is up.
func (l *Layer) Connected() bool {
	return l.current() != nil
}

func (l *Layer) current() *link {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.link
}

// drop closes lk and forgets it if it is still current.
func (l *Layer) drop(lk *link) {
	l.mu.Lock()
	if l.link == lk {
		l.link = nil
	}
	l.mu.Unlock()
	lk.conn.Close()
	<-lk.done
}

// call sends a request and waits for its reply. Failing replies are
// returned as *wire.ResultError.
func (l *Layer) call(ctx context.Context, req *wire.Envelope) (*wire.Envelope, error) {
	lk := l.current()
	if lk == nil {
		return nil, wire.Errorf(wire.ResultNotOpen, "%s: not connected", req.Op)
	}

	req.Seq = l.seq.Add(1)
	if req.Seq == 0 {
		req.Seq = l.seq.Add(1)
	}
	data, err := wire.EncodeEnvelope(req)
	if err != nil {
		return nil, wire.Errorf(wire.ResultInvalidParameter, "%s: %v", req.Op, err)
	}

	replyCh := make(chan *wire.Envelope, 1)
	l.pendingMu.Lock()
	l.pending[req.Seq] = replyCh
	l.pendingMu.Unlock()
	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, req.Seq)
		l.pendingMu.Unlock()
	}()

	l.logEnvelope(lk.conn.ID(), req, log.DirectionOut)
	if err := lk.conn.Send(data); err != nil {
		return nil, wire.Errorf(wire.ResultTransport, "%s: %v", req.Op, err)
	}

	timer := time.NewTimer(l.config.RequestTimeout)
	defer timer.Stop()
	select {
	case reply := <-replyCh:
		return reply, reply.Err()
	case <-lk.done:
		return nil, wire.Errorf(wire.ResultTransport, "%s: connection lost", req.Op)
	case <-timer.C:
		return nil, wire.Errorf(wire.ResultTimeout, "%s: no reply after %s", req.Op, l.config.RequestTimeout)
	case <-ctx.Done():
		return nil, wire.Errorf(wire.ResultTimeout, "%s: %v", req.Op, ctx.Err())
	}
}

// readLoop routes replies to their callers and buffers messages. Neither
// path blocks, so a reply is routed even while messages go unread.
func (l *Layer) readLoop(lk *link) {
	defer close(lk.done)

	for {
		data, err := lk.conn.Receive()
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				lk.err = err
				if errors.Is(err, io.EOF) {
					lk.err = errors.New("closed by service")
				}
				l.debugLog("remote: read failed", "conn", lk.conn.ID(), "error", err)
			}
			return
		}

		env, err := wire.DecodeEnvelope(data)
		if err != nil {
			l.debugLog("remote: dropping invalid envelope", "error", err)
			continue
		}
		l.logEnvelope(lk.conn.ID(), env, log.DirectionIn)

		switch env.Op {
		case wire.OpReply:
			l.pendingMu.Lock()
			ch, ok := l.pending[env.Seq]
			l.pendingMu.Unlock()
			if !ok {
				l.debugLog("remote: unexpected reply", "seq", env.Seq)
				continue
			}
			select {
			case ch <- env:
			default:
			}
		case wire.OpMessage:
			lk.push(env.Message)
			if n := lk.backlog(); n == l.config.MessageBuffer+1 {
				l.debugLog("remote: message backlog growing", "conn", lk.conn.ID(), "unread", n)
			}
		default:
			l.debugLog("remote: unexpected operation", "op", env.Op)
		}
	}
}

func (l *Layer) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
