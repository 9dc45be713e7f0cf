package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capture-protocol/capture-go/pkg/log"
)

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *captureLogger) states() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if e.StateChange != nil {
			out = append(out, e.StateChange.NewState)
		}
	}
	return out
}

func (c *captureLogger) frames() []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []log.Event
	for _, e := range c.events {
		if e.Frame != nil {
			out = append(out, e)
		}
	}
	return out
}

func TestFrameRoundTrip(t *testing.T) {
	for _, payload := range [][]byte{
		{0x42},
		[]byte("hello"),
		bytes.Repeat([]byte("x"), DefaultMaxMessageSize),
	} {
		buf := new(bytes.Buffer)
		require.NoError(t, NewFrameWriter(buf).WriteFrame(payload))
		assert.Equal(t, FrameSize(len(payload)), buf.Len())

		got, err := NewFrameReader(buf).ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestFrameErrors(t *testing.T) {
	t.Run("empty write", func(t *testing.T) {
		assert.ErrorIs(t, NewFrameWriter(new(bytes.Buffer)).WriteFrame(nil), ErrMessageEmpty)
	})

	t.Run("write too large", func(t *testing.T) {
		w := NewFrameWriterWithMaxSize(new(bytes.Buffer), 100)
		assert.ErrorIs(t, w.WriteFrame(bytes.Repeat([]byte("x"), 101)), ErrMessageTooLarge)
	})

	t.Run("read too large", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, NewFrameWriter(buf).WriteFrame(bytes.Repeat([]byte("x"), 1000)))
		_, err := NewFrameReaderWithMaxSize(buf, 100).ReadFrame()
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("zero length", func(t *testing.T) {
		buf := bytes.NewBuffer(make([]byte, LengthPrefixSize))
		_, err := NewFrameReader(buf).ReadFrame()
		assert.ErrorIs(t, err, ErrMessageEmpty)
	})

	t.Run("truncated payload", func(t *testing.T) {
		var hdr [LengthPrefixSize]byte
		binary.BigEndian.PutUint32(hdr[:], 10)
		buf := bytes.NewBuffer(append(hdr[:], 1, 2, 3))
		_, err := NewFrameReader(buf).ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("truncated prefix", func(t *testing.T) {
		_, err := NewFrameReader(bytes.NewBuffer([]byte{0, 0})).ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("clean eof", func(t *testing.T) {
		_, err := NewFrameReader(new(bytes.Buffer)).ReadFrame()
		assert.Equal(t, io.EOF, err)
	})
}

func TestFramerLogsTruncatedFrames(t *testing.T) {
	logger := &captureLogger{}
	buf := new(bytes.Buffer)
	f := NewFramer(buf)
	f.SetLogger(logger, "sess-1", "peer")

	big := bytes.Repeat([]byte("z"), MaxLogFrameDataSize+10)
	require.NoError(t, f.WriteFrame([]byte("small")))
	require.NoError(t, f.WriteFrame(big))
	_, err := f.ReadFrame()
	require.NoError(t, err)

	frames := logger.frames()
	require.Len(t, frames, 3)
	assert.Equal(t, "sess-1", frames[0].SessionID)
	assert.Equal(t, "peer", frames[0].RemoteAddr)
	assert.Equal(t, log.DirectionOut, frames[0].Direction)
	assert.False(t, frames[0].Frame.Truncated)
	assert.True(t, frames[1].Frame.Truncated)
	assert.Len(t, frames[1].Frame.Data, MaxLogFrameDataSize)
	assert.Equal(t, FrameSize(len(big)), frames[1].Frame.Size)
	assert.Equal(t, log.DirectionIn, frames[2].Direction)

	f.SetLogger(nil, "", "")
	require.NoError(t, f.WriteFrame([]byte("quiet")))
	assert.Len(t, logger.frames(), 3)
}

func TestStreamConnPipe(t *testing.T) {
	a, b := net.Pipe()
	ca := NewStreamConn("a", a, 0, nil)
	cb := NewStreamConn("b", b, 0, nil)
	assert.Equal(t, "a", ca.ID())

	go func() { _ = ca.Send([]byte("ping")) }()
	got, err := cb.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)

	require.NoError(t, ca.Close())
	require.NoError(t, ca.Close())
	assert.ErrorIs(t, ca.Send([]byte("x")), ErrClosed)

	_, err = cb.Receive()
	assert.Equal(t, io.EOF, err)
}

// echo returns a handler that sends every frame back until the peer leaves.
func echo(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Receive()
		if err != nil {
			return
		}
		if err := conn.Send(data); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, ws bool, logger log.Logger) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Address:   "127.0.0.1:0",
		WebSocket: ws,
		Logger:    logger,
		Handler:   echo,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func TestServerEcho(t *testing.T) {
	for _, tc := range []struct {
		name   string
		ws     bool
		prefix string
	}{
		{"tcp", false, "tcp://"},
		{"websocket", true, "ws://"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger := &captureLogger{}
			srv := startServer(t, tc.ws, logger)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			conn, err := Dial(ctx, tc.prefix+srv.Addr().String(), ClientConfig{})
			require.NoError(t, err)

			require.NoError(t, conn.Send([]byte("hello")))
			got, err := conn.Receive()
			require.NoError(t, err)
			assert.Equal(t, []byte("hello"), got)

			require.Eventually(t, func() bool { return srv.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)
			require.NoError(t, conn.Close())
			require.Eventually(t, func() bool { return srv.ConnectionCount() == 0 }, time.Second, 5*time.Millisecond)

			require.Eventually(t, func() bool { return len(logger.states()) == 2 }, time.Second, 5*time.Millisecond)
			assert.Equal(t, []string{"CONNECTED", "DISCONNECTED"}, logger.states())
			assert.NotEmpty(t, logger.frames())
		})
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	srv := startServer(t, false, nil)

	conn, err := Dial(context.Background(), srv.Addr().String(), ClientConfig{})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, srv.Stop())
	assert.Equal(t, 0, srv.ConnectionCount())

	_, err = conn.Receive()
	assert.Error(t, err)
	require.NoError(t, srv.Stop())
}

func TestServerCallbacks(t *testing.T) {
	var mu sync.Mutex
	var connected, disconnected []string
	srv, err := NewServer(ServerConfig{
		Address: "127.0.0.1:0",
		Handler: func(ctx context.Context, conn Conn) {
			_, _ = conn.Receive()
		},
		OnConnect: func(c Conn) {
			mu.Lock()
			connected = append(connected, c.ID())
			mu.Unlock()
		},
		OnDisconnect: func(c Conn) {
			mu.Lock()
			disconnected = append(disconnected, c.ID())
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	conn, err := Dial(context.Background(), srv.Addr().String(), ClientConfig{})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(disconnected) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, connected, disconnected)
	assert.NotEmpty(t, connected[0])
}

func TestNewServerRequiresHandler(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestWebSocketSizeLimit(t *testing.T) {
	srv := startServer(t, true, nil)
	conn, err := Dial(context.Background(), "ws://"+srv.Addr().String(), ClientConfig{MaxMessageSize: 8})
	require.NoError(t, err)
	defer conn.Close()

	assert.ErrorIs(t, conn.Send([]byte("123456789")), ErrMessageTooLarge)
	assert.ErrorIs(t, conn.Send(nil), ErrMessageEmpty)
}

func TestDialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = Dial(context.Background(), addr, ClientConfig{ConnectTimeout: time.Second})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrClosed))
}
