package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/transport"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// ServeConfig configures Serve.
type ServeConfig struct {
	// PollInterval bounds each backend WaitForMessage call (default: 20ms).
	PollInterval time.Duration

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// ProtocolLogger receives envelope events (optional).
	ProtocolLogger log.Logger
}

// server exposes one backend to one connection.
type server struct {
	conn    transport.Conn
	backend session.DeviceLayer
	config  ServeConfig
	plog    log.Logger

	// pump forwards backend messages while the backend session is open.
	pumpStop chan struct{}
	pumpDone chan struct{}
}

// Serve executes requests from conn against backend and forwards backend
// messages to conn until the peer disconnects or ctx ends. A backend session
// left open by the peer is closed on return. A backend receive failure
// closes the connection.
func Serve(ctx context.Context, conn transport.Conn, backend session.DeviceLayer, config ServeConfig) error {
	if config.PollInterval <= 0 {
		config.PollInterval = 20 * time.Millisecond
	}
	s := &server{
		conn:    conn,
		backend: backend,
		config:  config,
		plog:    log.OrNoop(config.ProtocolLogger),
	}
	defer s.release()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		data, err := conn.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		req, err := wire.DecodeEnvelope(data)
		if err != nil {
			s.debugLog("remote: dropping invalid envelope", "conn", conn.ID(), "error", err)
			continue
		}
		s.plog.Log(envelopeEvent(conn.ID(), req, log.DirectionIn))

		reply := s.handle(ctx, req)
		if err := s.send(reply); err != nil {
			return err
		}
	}
}

// Handler adapts Serve to transport.ServerConfig.Handler.
func Handler(backend session.DeviceLayer, config ServeConfig) func(context.Context, transport.Conn) {
	return func(ctx context.Context, conn transport.Conn) {
		if err := Serve(ctx, conn, backend, config); err != nil && config.Logger != nil {
			config.Logger.Warn("remote: connection ended", "conn", conn.ID(), "error", err)
		}
	}
}

func (s *server) handle(ctx context.Context, req *wire.Envelope) *wire.Envelope {
	reply := &wire.Envelope{Op: wire.OpReply, Seq: req.Seq}
	if err := s.execute(ctx, req, reply); err != nil {
		reply.Result = wire.ResultOf(err)
		reply.Text = err.Error()
		var re *wire.ResultError
		if errors.As(err, &re) {
			reply.Text = re.Message
		}
	}
	return reply
}

func (s *server) execute(ctx context.Context, req, reply *wire.Envelope) error {
	// Only the connection that opened the backend session may use it.
	if req.Op != wire.OpOpen && s.pumpStop == nil {
		return wire.Errorf(wire.ResultNotOpen, "%s: no session on this connection", req.Op)
	}

	var err error
	switch req.Op {
	case wire.OpOpen:
		var app wire.AppInfo
		if req.App != nil {
			app = *req.App
		}
		if err = s.backend.Open(ctx, app); err == nil {
			s.startPump()
		}
	case wire.OpClose:
		s.stopPump()
		err = s.backend.Close()
	case wire.OpGetProperty:
		err = s.backend.GetProperty(req.Handle, req.Property, req.Token)
	case wire.OpSetProperty:
		err = s.backend.SetProperty(req.Handle, req.Property, req.Token)
	case wire.OpOpenDevice:
		reply.Handle, err = s.backend.OpenDevice(req.Identity)
	case wire.OpCloseDevice:
		err = s.backend.CloseDevice(req.Handle)
	default:
		err = wire.Errorf(wire.ResultNotSupported, "operation %s", req.Op)
	}
	return err
}

func (s *server) send(env *wire.Envelope) error {
	data, err := wire.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	s.plog.Log(envelopeEvent(s.conn.ID(), env, log.DirectionOut))
	return s.conn.Send(data)
}

func (s *server) startPump() {
	s.pumpStop = make(chan struct{})
	s.pumpDone = make(chan struct{})
	go s.pump(s.pumpStop, s.pumpDone)
}

func (s *server) stopPump() {
	if s.pumpStop == nil {
		return
	}
	close(s.pumpStop)
	<-s.pumpDone
	s.pumpStop, s.pumpDone = nil, nil
}

func (s *server) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		msg, err := s.backend.WaitForMessage(s.config.PollInterval)
		if err != nil {
			s.debugLog("remote: backend receive failed", "conn", s.conn.ID(), "error", err)
			s.conn.Close()
			return
		}
		if msg == nil {
			continue
		}
		if err := s.send(&wire.Envelope{Op: wire.OpMessage, Message: msg}); err != nil {
			s.debugLog("remote: forward failed", "conn", s.conn.ID(), "error", err)
			return
		}
	}
}

// release closes a backend session the peer left open.
func (s *server) release() {
	if s.pumpStop == nil {
		return
	}
	s.stopPump()
	if err := s.backend.Close(); err != nil {
		s.debugLog("remote: backend close failed", "error", err)
	}
}

func (s *server) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}
