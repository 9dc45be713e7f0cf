package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/capture-protocol/capture-go/pkg/log"
)

// ServerConfig configures a capture service listener.
type ServerConfig struct {
	// Address to listen on (e.g., ":7420" or "127.0.0.1:0").
	Address string

	// WebSocket serves HTTP upgrade requests instead of raw framed TCP.
	WebSocket bool

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// Logger for protocol logging (optional).
	Logger log.Logger

	// Handler serves one connection and owns it until it returns; the
	// server closes the connection afterwards. Required.
	Handler func(ctx context.Context, conn Conn)

	// OnConnect is called when a new connection is established.
	OnConnect func(conn Conn)

	// OnDisconnect is called after a connection is closed.
	OnDisconnect func(conn Conn)

	// OnError is called for accept and upgrade failures.
	OnError func(err error)
}

// Server accepts connections and hands each to ServerConfig.Handler.
type Server struct {
	config   ServerConfig
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader

	conns   map[Conn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server. It does not listen until Start.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	s := &Server{
		config: config,
		conns:  make(map[Conn]struct{}),
		ctx:    context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	return s, nil
}

// Start listens on the configured address and begins accepting.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	if s.config.WebSocket {
		s.http = &http.Server{
			Handler:           http.HandlerFunc(s.ServeWebSocket),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			defer s.wg.Done()
			if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.reportError(fmt.Errorf("http serve: %w", err))
			}
		}()
		return nil
	}
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every active connection, then waits for
// the handlers to return.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()

	if s.http != nil {
		s.http.Close()
	} else if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// ServeWebSocket upgrades an HTTP request and serves the resulting
// connection. It can be mounted on any http.ServeMux.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.reportError(fmt.Errorf("websocket upgrade: %w", err))
		return
	}
	s.wg.Add(1)
	s.serve(newWSConn(uuid.NewString(), c, s.config.MaxMessageSize, s.config.Logger))
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		c, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.reportError(fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go s.serve(NewStreamConn(uuid.NewString(), c, s.config.MaxMessageSize, s.config.Logger))
	}
}

// serve runs the handler for one connection. The caller has already
// incremented wg.
func (s *Server) serve(conn Conn) {
	defer s.wg.Done()

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	s.logState(conn, "", "CONNECTED")
	if s.config.OnConnect != nil {
		s.config.OnConnect(conn)
	}

	s.config.Handler(s.ctx, conn)
	conn.Close()

	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()

	s.logState(conn, "CONNECTED", "DISCONNECTED")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(conn)
	}
}

func (s *Server) logState(conn Conn, from, to string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  conn.ID(),
		Layer:      log.LayerTransport,
		Category:   log.CategoryState,
		RemoteAddr: conn.RemoteAddr(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: from,
			NewState: to,
		},
	})
}

func (s *Server) reportError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}
