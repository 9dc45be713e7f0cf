package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/session/mocks"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Millisecond, cfg.ReceiveTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ReceiveInterval)
}

func TestNewGeneratesSessionID(t *testing.T) {
	s1, _, _ := newTestSession(t, Config{})
	s2, _, _ := newTestSession(t, Config{SessionID: "fixed"})
	assert.Len(t, s1.ID(), 36)
	assert.Equal(t, "fixed", s2.ID())
	assert.Equal(t, StateClosed, s1.State())
}

func TestOpenPromotesOnReceive(t *testing.T) {
	s, layer, rec := newTestSession(t, Config{})

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, StateOpening, s.State())
	assert.ErrorIs(t, s.Open(context.Background()), ErrAlreadyOpen)

	require.Eventually(t, func() bool { return rec.initCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, wire.ResultSuccess, rec.initResults[0])
	assert.Equal(t, StateOpening, s.State(), "state changes only in the loop")

	s.ReceiveOnce()
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, 1, layer.opened)
}

func TestHandshakeFailure(t *testing.T) {
	s, layer, rec := newTestSession(t, Config{})
	layer.openErr = wire.Errorf(wire.ResultNotReady, "service not running")

	require.NoError(t, s.Open(context.Background()))
	require.Eventually(t, func() bool { return rec.initCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, wire.ResultNotReady, rec.initResults[0])

	assert.False(t, s.ReceiveOnce())
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 0, rec.terminations())

	// A failed open can be retried.
	layer.mu.Lock()
	layer.openErr = nil
	layer.mu.Unlock()
	require.NoError(t, s.Open(context.Background()))
	waitOpen(t, s)
}

func TestNoDispatchWhileClosed(t *testing.T) {
	s, layer, _ := newTestSession(t, Config{})
	s.GetCaptureVersion(nil)
	s.ReceiveOnce()

	assert.Empty(t, layer.sent())
	assert.Len(t, s.Queue(), 1)

	require.NoError(t, s.Open(context.Background()))
	waitOpen(t, s)

	require.Len(t, layer.sent(), 1)
	assert.Equal(t, wire.PropCaptureVersion, layer.last().prop.ID)
}

// Scenario A.
func TestPlaceholderReplacedByArrival(t *testing.T) {
	s, layer, rec := openSession(t, Config{PlaceholderLabel: "No device"})

	devices := s.Devices()
	require.Len(t, devices, 1)
	assert.True(t, devices[0].IsPlaceholder())
	assert.Equal(t, "No device", devices[0].Name())

	d := arrive(t, s, layer, "Scanner 7")
	devices = s.Devices()
	require.Len(t, devices, 1)
	assert.False(t, devices[0].IsPlaceholder())
	assert.Same(t, d, devices[0])
	assert.Equal(t, "Scanner 7", d.Name())

	require.Len(t, rec.arrivals, 1)
	assert.Equal(t, wire.ResultSuccess, rec.arrivalResults[0])
	assert.Same(t, d, rec.arrivals[0])
}

func TestArrivalOpenFailure(t *testing.T) {
	s, layer, rec := openSession(t, Config{PlaceholderLabel: "No device"})
	layer.openDeviceErr = wire.Errorf(wire.ResultDeviceBusy, "radio busy")

	layer.push(&wire.Message{Kind: wire.MessageDeviceArrival, Identity: "x", Name: "S"})
	require.True(t, s.ReceiveOnce())

	require.Len(t, rec.arrivals, 1)
	assert.Nil(t, rec.arrivals[0])
	assert.Equal(t, wire.ResultDeviceBusy, rec.arrivalResults[0])
	assert.Equal(t, 0, s.registry.Len())
	assert.True(t, s.Devices()[0].IsPlaceholder())
}

// Scenario B.
func TestRemovalCancelsDeviceCommands(t *testing.T) {
	s, layer, rec := openSession(t, Config{PlaceholderLabel: "No device"})
	d := arrive(t, s, layer, "Scanner")

	var called int
	require.NoError(t, s.GetBatteryLevel(d, func(int, error) { called++ }))
	require.NoError(t, s.GetFriendlyName(d, func(string, error) { called++ }))
	q := s.Queue()
	require.Len(t, q, 2)
	assert.Equal(t, queue.StatusPending, q[0].Status)

	layer.push(&wire.Message{Kind: wire.MessageDeviceRemoval, Handle: d.Handle()})
	require.True(t, s.ReceiveOnce())

	assert.Empty(t, s.Queue())
	assert.Equal(t, 0, s.registry.Len())
	devices := s.Devices()
	require.Len(t, devices, 1)
	assert.True(t, devices[0].IsPlaceholder())
	require.Len(t, rec.removals, 1)
	assert.Same(t, d, rec.removals[0])
	assert.Equal(t, []wire.Handle{d.Handle()}, layer.closedDevices)

	// A late completion for the removed command is ignored.
	layer.respond(wire.ResultSuccess, wire.UlongProperty(wire.PropDeviceBatteryLevel, 0))
	drain(s)
	assert.Equal(t, 0, called)
}

func TestRemovalOfUnknownHandleStillReleases(t *testing.T) {
	s, layer, rec := openSession(t, Config{})
	layer.push(&wire.Message{Kind: wire.MessageDeviceRemoval, Handle: 99})
	require.True(t, s.ReceiveOnce())

	assert.Empty(t, rec.removals)
	assert.Equal(t, []wire.Handle{99}, layer.closedDevices)
}

// Scenario C.
func TestConfirmationAfterDecodedData(t *testing.T) {
	s, layer, rec := openSession(t, Config{})
	d := arrive(t, s, layer, "Scanner")

	rec.onDecoded = func(d *model.Device, _ wire.DecodedData) {
		assert.NoError(t, s.SetDataConfirmation(d, wire.GoodConfirmation, nil))
	}

	require.NoError(t, s.GetBatteryLevel(d, nil))
	require.NoError(t, s.GetFriendlyName(d, nil))
	require.Len(t, layer.sent(), 1)

	layer.push(&wire.Message{
		Kind:   wire.MessageEvent,
		Handle: d.Handle(),
		Event: &wire.Event{
			Kind: wire.EventDecodedData,
			Data: &wire.DecodedData{SymbologyID: wire.SymbologyCode128, Data: []byte("12345")},
		},
	})
	require.True(t, s.ReceiveOnce())
	require.Len(t, rec.decoded, 1)
	assert.Equal(t, []byte("12345"), rec.decoded[0].Data)

	q := s.Queue()
	require.Len(t, q, 3)
	assert.Equal(t, wire.PropDeviceDataConfirmation, q[1].Property)

	layer.respond(wire.ResultSuccess, wire.UlongProperty(wire.PropDeviceBatteryLevel, wire.PackBattery(50, 0, 100)))
	require.True(t, s.ReceiveOnce())
	assert.Equal(t, wire.PropDeviceDataConfirmation, layer.last().prop.ID)
	assert.Equal(t, wire.GoodConfirmation.Pack(), layer.last().prop.Ulong)

	layer.respond(wire.ResultSuccess, nil)
	require.True(t, s.ReceiveOnce())
	assert.Equal(t, wire.PropDeviceFriendlyName, layer.last().prop.ID)
}

// Scenario D.
func TestCloseThenTerminate(t *testing.T) {
	s, layer, rec := openSession(t, Config{PlaceholderLabel: "No device"})
	d := arrive(t, s, layer, "Scanner")
	require.NoError(t, s.GetBatteryLevel(d, nil))
	require.NoError(t, s.GetFriendlyName(d, nil))
	batteryToken := layer.last().token

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosing, s.State())
	assert.ErrorIs(t, s.Close(), ErrNotOpen)

	q := s.Queue()
	require.Len(t, q, 1)
	assert.True(t, q[0].Abort)
	assert.Equal(t, wire.PropCaptureAbort, layer.last().prop.ID)
	assert.Equal(t, wire.HandleNone, layer.last().handle)

	// The superseded battery read may still complete; it is ignored.
	layer.push(&wire.Message{Kind: wire.MessageGetComplete, Handle: d.Handle(), Token: batteryToken})
	layer.respond(wire.ResultSuccess, nil)
	layer.push(&wire.Message{Kind: wire.MessageTerminate})
	drain(s)

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, rec.terminations())
	assert.Equal(t, 1, layer.closed)
	assert.Empty(t, s.Queue())
	assert.True(t, s.Devices()[0].IsPlaceholder())

	assert.ErrorIs(t, s.Close(), ErrNotOpen)
	layer.push(&wire.Message{Kind: wire.MessageTerminate})
	assert.False(t, s.ReceiveOnce())
	assert.Equal(t, 1, rec.terminations())
}

func TestCloseRequiresOpen(t *testing.T) {
	s, _, _ := newTestSession(t, Config{})
	assert.ErrorIs(t, s.Close(), ErrNotOpen)
}

func TestAbortDispatchFailureTerminates(t *testing.T) {
	s, layer, rec := openSession(t, Config{})
	layer.reject[wire.PropCaptureAbort] = wire.Errorf(wire.ResultNotOpen, "gone")

	require.NoError(t, s.Close())

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, rec.terminations())
	assert.Equal(t, 1, layer.closed)
	assert.Empty(t, rec.recvErrors)
}

func TestAbortCompletionFailureTerminates(t *testing.T) {
	s, layer, rec := openSession(t, Config{})
	require.NoError(t, s.Close())

	for i := 0; i < queue.MaxRetries; i++ {
		assert.Equal(t, 0, rec.terminations())
		layer.respond(wire.ResultFailure, nil)
		require.True(t, s.ReceiveOnce())
	}

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, rec.terminations())
	assert.Len(t, layer.sent(), queue.MaxRetries)
}

func TestReceiveFailureTerminates(t *testing.T) {
	s, layer, rec := openSession(t, Config{})
	d := arrive(t, s, layer, "Scanner")
	require.NoError(t, s.GetBatteryLevel(d, nil))

	layer.setRecvErr(wire.Errorf(wire.ResultTransport, "pipe broken"))
	assert.False(t, s.ReceiveOnce())

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, []wire.Result{wire.ResultTransport}, rec.recvErrors)
	assert.Equal(t, 1, rec.terminations())
	assert.Equal(t, 1, layer.closed)
	assert.Empty(t, s.Queue())
	assert.Empty(t, s.Devices())

	assert.False(t, s.ReceiveOnce())
	assert.Equal(t, 1, rec.terminations())
}

func TestReceiveFailureWithMockLayer(t *testing.T) {
	layer := mocks.NewMockDeviceLayer(t)
	layer.EXPECT().Open(mock.Anything, wire.AppInfo{AppID: "test"}).Return(nil).Once()
	layer.EXPECT().WaitForMessage(time.Millisecond).Return(nil, errors.New("eof")).Once()
	layer.EXPECT().Close().Return(nil).Once()

	rec := &recorder{}
	s := New(layer, rec, Config{AppInfo: wire.AppInfo{AppID: "test"}})
	require.NoError(t, s.Open(context.Background()))
	require.Eventually(t, func() bool { return rec.initCount() == 1 }, time.Second, time.Millisecond)

	assert.False(t, s.ReceiveOnce())
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, []wire.Result{wire.ResultFailure}, rec.recvErrors)
	assert.Equal(t, 1, rec.terminations())
}

func TestErrorAndUnroutedEvents(t *testing.T) {
	s, layer, rec := openSession(t, Config{})

	layer.push(&wire.Message{Kind: wire.MessageEvent, Event: &wire.Event{Kind: wire.EventError, Code: wire.ResultTimeout, Message: "listener stopped"}})
	layer.push(&wire.Message{Kind: wire.MessageEvent, Handle: 7, Event: &wire.Event{Kind: wire.EventDecodedData, Data: &wire.DecodedData{Data: []byte("x")}}})
	layer.push(&wire.Message{Kind: wire.MessageEvent, Handle: 7, Event: &wire.Event{Kind: wire.EventPower, Value: 3}})
	layer.push(&wire.Message{Kind: wire.MessageEvent})
	drain(s)

	assert.Equal(t, []wire.Result{wire.ResultTimeout}, rec.errors)
	assert.Equal(t, []string{"listener stopped"}, rec.errorMessages)
	assert.Empty(t, rec.decoded, "decoded data for an unknown handle is dropped")
	assert.Equal(t, StateOpen, s.State())
}

func TestSilentRetryThroughSession(t *testing.T) {
	s, layer, _ := openSession(t, Config{})
	d := arrive(t, s, layer, "Scanner")

	var level int
	var calls int
	require.NoError(t, s.GetBatteryLevel(d, func(v int, err error) {
		calls++
		assert.NoError(t, err)
		level = v
	}))
	token := layer.last().token

	layer.respond(wire.ResultDeviceBusy, nil)
	require.True(t, s.ReceiveOnce())
	assert.Equal(t, 0, calls)
	require.Len(t, layer.sent(), 2)
	assert.Equal(t, token, layer.last().token)

	layer.respond(wire.ResultSuccess, wire.UlongProperty(wire.PropDeviceBatteryLevel, wire.PackBattery(75, 0, 100)))
	require.True(t, s.ReceiveOnce())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 75, level)
	assert.Equal(t, 75, d.BatteryLevel())
}

func TestRetryCeilingReportsFailure(t *testing.T) {
	s, layer, _ := openSession(t, Config{})
	d := arrive(t, s, layer, "Scanner")

	var got error
	var calls int
	require.NoError(t, s.SetPostamble(d, "\r\n", func(err error) {
		calls++
		got = err
	}))
	for i := 0; i < queue.MaxRetries; i++ {
		layer.respond(wire.ResultDeviceBusy, nil)
		require.True(t, s.ReceiveOnce())
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, wire.ResultDeviceBusy, wire.ResultOf(got))
	assert.Empty(t, s.Queue())
	assert.Empty(t, d.Postamble(), "record unchanged on failure")
}

func TestProtocolLoggerReceivesStateChanges(t *testing.T) {
	pl := &captureLogger{}
	s, layer, _ := openSession(t, Config{ProtocolLogger: pl, SessionID: "sess"})
	arrive(t, s, layer, "Scanner")

	states := pl.states(log.StateEntitySession)
	assert.Equal(t, []string{"OPENING", "OPEN"}, states)
	assert.Equal(t, []string{"ARRIVED"}, pl.states(log.StateEntityDevice))

	for _, ev := range pl.all() {
		assert.Equal(t, "sess", ev.SessionID)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, layer, rec := newTestSession(t, Config{ReceiveInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Open(ctx))
	require.Eventually(t, func() bool { return s.State() == StateOpen }, time.Second, time.Millisecond)

	layer.push(&wire.Message{Kind: wire.MessageDeviceArrival, Identity: "a", Name: "A"})
	layer.push(&wire.Message{Kind: wire.MessageDeviceArrival, Identity: "b", Name: "B"})
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.arrivals) == 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPENING", StateOpening.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "CLOSING", StateClosing.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(ev log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureLogger) all() []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]log.Event(nil), c.events...)
}

func (c *captureLogger) states(entity log.StateEntity) []string {
	var out []string
	for _, ev := range c.all() {
		if ev.StateChange != nil && ev.StateChange.Entity == entity {
			out = append(out, ev.StateChange.NewState)
		}
	}
	return out
}
