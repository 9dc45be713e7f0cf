package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

var testApp = wire.AppInfo{AppID: "ios:com.example.capture", DeveloperID: "dev"}

type seen struct {
	arrivals   []*model.Device
	removals   int
	decoded    []wire.DecodedData
	errors     []wire.Result
	recvErrors []wire.Result
	terminated int
}

type notes struct {
	session.NopNotifier

	mu sync.Mutex
	s  seen
}

func (n *notes) OnDeviceArrival(_ wire.Result, d *model.Device) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.arrivals = append(n.s.arrivals, d)
}

func (n *notes) OnDeviceRemoval(*model.Device) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.removals++
}

func (n *notes) OnDecodedData(_ *model.Device, data wire.DecodedData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.decoded = append(n.s.decoded, data)
}

func (n *notes) OnError(r wire.Result, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.errors = append(n.s.errors, r)
}

func (n *notes) OnErrorRetrievingMessage(r wire.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.recvErrors = append(n.s.recvErrors, r)
}

func (n *notes) OnSessionTerminated() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.s.terminated++
}

func (n *notes) snapshot() seen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return seen{
		arrivals:   append([]*model.Device(nil), n.s.arrivals...),
		removals:   n.s.removals,
		decoded:    append([]wire.DecodedData(nil), n.s.decoded...),
		errors:     append([]wire.Result(nil), n.s.errors...),
		recvErrors: append([]wire.Result(nil), n.s.recvErrors...),
		terminated: n.s.terminated,
	}
}

// pump calls ReceiveOnce until cond holds.
func pump(t *testing.T, s *session.Session, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.ReceiveOnce()
		return cond()
	}, 2*time.Second, time.Millisecond)
}

func startSession(t *testing.T, svc *Service) (*session.Session, *notes) {
	t.Helper()
	n := &notes{}
	cfg := session.DefaultConfig()
	cfg.AppInfo = testApp
	cfg.PlaceholderLabel = "No device"
	s := session.New(svc, n, cfg)
	require.NoError(t, s.Open(context.Background()))
	pump(t, s, func() bool { return s.State() == session.StateOpen })
	return s, n
}

func connect(t *testing.T, s *session.Session, svc *Service, n *notes, name string) (string, *model.Device) {
	t.Helper()
	id := svc.AddDevice(name, wire.DeviceTypeScanner7)
	want := len(n.snapshot().arrivals) + 1
	pump(t, s, func() bool { return len(n.snapshot().arrivals) == want })
	d := n.snapshot().arrivals[want-1]
	require.NotNil(t, d)
	return id, d
}

func TestSessionOverSimulator(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	id, d := connect(t, s, svc, n, "Scanner 7")
	assert.Equal(t, "Scanner 7", d.Name())
	assert.Equal(t, id, d.Identity())

	var level int
	done := false
	require.NoError(t, s.GetBatteryLevel(d, func(v int, err error) {
		assert.NoError(t, err)
		level = v
		done = true
	}))
	pump(t, s, func() bool { return done })
	assert.Equal(t, 80, level)
	assert.Equal(t, 80, d.BatteryLevel())

	done = false
	require.NoError(t, s.SetFriendlyName(d, "Dock", func(err error) {
		assert.NoError(t, err)
		done = true
	}))
	pump(t, s, func() bool { return done })
	assert.Equal(t, "Dock", svc.Devices()[0].Name)

	require.NoError(t, svc.Scan(id, wire.SymbologyCode128, []byte("0123456789")))
	pump(t, s, func() bool { return len(n.snapshot().decoded) == 1 })
	data := n.snapshot().decoded[0]
	assert.Equal(t, []byte("0123456789"), data.Data)
	assert.Equal(t, "Code 128", data.SymbologyName)

	done = false
	require.NoError(t, s.SetDataConfirmation(d, wire.GoodConfirmation, func(err error) { done = err == nil }))
	pump(t, s, func() bool { return done })
	c, ok := svc.LastConfirmation(id)
	require.True(t, ok)
	assert.Equal(t, wire.GoodConfirmation, c)

	require.NoError(t, s.Close())
	pump(t, s, func() bool { return s.State() == session.StateClosed })
	assert.Equal(t, 1, n.snapshot().terminated)
	assert.False(t, svc.IsOpen())
}

func TestSimulatorFailNextIsRetriedSilently(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	_, d := connect(t, s, svc, n, "Scanner")

	svc.FailNext(wire.PropDeviceBatteryLevel, wire.ResultDeviceBusy, 2)

	calls := 0
	require.NoError(t, s.GetBatteryLevel(d, func(_ int, err error) {
		assert.NoError(t, err)
		calls++
	}))
	pump(t, s, func() bool { return calls == 1 })

	battery := 0
	for _, r := range svc.Requests() {
		if r.Property.ID == wire.PropDeviceBatteryLevel {
			battery++
		}
	}
	assert.Equal(t, 3, battery)
}

func TestSimulatorRetryCeiling(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	_, d := connect(t, s, svc, n, "Scanner")

	svc.FailNext(wire.PropDevicePostamble, wire.ResultTimeout, 10)

	var got error
	calls := 0
	require.NoError(t, s.SetPostamble(d, "\t", func(err error) {
		got = err
		calls++
	}))
	pump(t, s, func() bool { return calls == 1 })
	assert.Equal(t, wire.ResultTimeout, wire.ResultOf(got))
	assert.Len(t, svc.Requests(), queue.MaxRetries)
}

func TestSimulatorDispatchFailureDropsCommand(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	_, d := connect(t, s, svc, n, "Scanner")

	svc.FailDispatch(wire.PropDeviceFriendlyName, wire.Errorf(wire.ResultNotSupported, "read only"))

	nameCalled := false
	versionDone := false
	require.NoError(t, s.SetFriendlyName(d, "x", func(error) { nameCalled = true }))
	require.NoError(t, s.GetFirmwareVersion(d, func(_ wire.Version, err error) { versionDone = err == nil }))
	pump(t, s, func() bool { return versionDone })
	assert.False(t, nameCalled)
	assert.Equal(t, uint16(10), d.Version().Major)

	svc.FailDispatch(wire.PropDeviceFriendlyName, nil)
	done := false
	require.NoError(t, s.SetFriendlyName(d, "y", func(err error) { done = err == nil }))
	pump(t, s, func() bool { return done })
}

func TestSimulatorDropTerminatesSession(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)

	svc.Drop()
	pump(t, s, func() bool { return s.State() == session.StateClosed })

	got := n.snapshot()
	assert.Equal(t, []wire.Result{wire.ResultTransport}, got.recvErrors)
	assert.Equal(t, 1, got.terminated)
}

func TestSimulatorRemoveDevice(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	id, _ := connect(t, s, svc, n, "Scanner")

	require.NoError(t, svc.RemoveDevice(id))
	pump(t, s, func() bool { return n.snapshot().removals == 1 })

	devices := s.Devices()
	require.Len(t, devices, 1)
	assert.True(t, devices[0].IsPlaceholder())
	assert.Empty(t, svc.Devices())
}

func TestSimulatorSymbologies(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	_, d := connect(t, s, svc, n, "Scanner")

	done := false
	require.NoError(t, s.GetAllSymbologies(d, func(err error) {
		assert.NoError(t, err)
		done = true
	}))
	pump(t, s, func() bool { return done })

	e, _ := d.Symbology(wire.SymbologyQRCode)
	assert.Equal(t, wire.SymbologyEnabled, e.Status)
	e, _ = d.Symbology(wire.SymbologyAztec)
	assert.Equal(t, wire.SymbologyDisabled, e.Status)
	e, _ = d.Symbology(wire.SymbologyHanXin)
	assert.Equal(t, wire.SymbologyNotSupported, e.Status)

	var setErr error
	done = false
	require.NoError(t, s.SetSymbology(d, wire.SymbologyHanXin, true, func(err error) {
		setErr = err
		done = true
	}))
	pump(t, s, func() bool { return done })
	assert.Equal(t, wire.ResultNotSupported, wire.ResultOf(setErr))
}

func TestSimulatorSessionProperties(t *testing.T) {
	svc := New(DefaultConfig())
	s, _ := startSession(t, svc)

	var v wire.Version
	var mode wire.DataConfirmationMode
	done := 0
	s.GetCaptureVersion(func(got wire.Version, err error) { v = got; done++ })
	s.SetDataConfirmationMode(wire.ConfirmationModeDevice, func(err error) { assert.NoError(t, err); done++ })
	s.GetDataConfirmationMode(func(got wire.DataConfirmationMode, err error) { mode = got; done++ })
	pump(t, s, func() bool { return done == 3 })

	assert.Equal(t, DefaultConfig().Version, v)
	assert.Equal(t, wire.ConfirmationModeDevice, mode)
}

func TestServiceDirect(t *testing.T) {
	svc := New(DefaultConfig())
	ctx := context.Background()

	assert.Equal(t, wire.ResultInvalidParameter, wire.ResultOf(svc.Open(ctx, wire.AppInfo{})))
	assert.Equal(t, wire.ResultNotOpen, wire.ResultOf(svc.Close()))

	require.NoError(t, svc.Open(ctx, testApp))
	assert.Equal(t, wire.ResultAlreadyOpen, wire.ResultOf(svc.Open(ctx, testApp)))

	msg, err := svc.WaitForMessage(time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, msg)

	_, err = svc.OpenDevice("nope")
	assert.Equal(t, wire.ResultInvalidParameter, wire.ResultOf(err))

	err = svc.GetProperty(42, wire.NoneProperty(wire.PropDeviceBatteryLevel), 1)
	assert.Equal(t, wire.ResultInvalidHandle, wire.ResultOf(err))
	assert.Empty(t, svc.Requests())

	id := svc.AddDevice("A", wire.DeviceTypeNFC)
	msg, err = svc.WaitForMessage(time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, wire.MessageDeviceArrival, msg.Kind)
	assert.Equal(t, id, msg.Identity)

	h, err := svc.OpenDevice(id)
	require.NoError(t, err)
	again, err := svc.OpenDevice(id)
	require.NoError(t, err)
	assert.Equal(t, h, again)

	err = svc.SetProperty(h, wire.NoneProperty(wire.PropDeviceBatteryLevel), 2)
	assert.Equal(t, wire.ResultNotSupported, wire.ResultOf(err))

	require.NoError(t, svc.SetProperty(wire.HandleNone, wire.NoneProperty(wire.PropCaptureAbort), 3))
	msg, _ = svc.WaitForMessage(time.Second)
	require.NotNil(t, msg)
	assert.Equal(t, wire.MessageSetComplete, msg.Kind)
	assert.Equal(t, wire.Token(3), msg.Token)
	msg, _ = svc.WaitForMessage(time.Second)
	require.NotNil(t, msg)
	assert.Equal(t, wire.MessageTerminate, msg.Kind)

	require.NoError(t, svc.Close())
	assert.Equal(t, wire.HandleNone, svc.Devices()[0].Handle)
	assert.ErrorIs(t, svc.Scan(id, wire.SymbologyQRCode, nil), ErrNotConnected)
	assert.ErrorIs(t, svc.Scan("nope", wire.SymbologyQRCode, nil), ErrUnknownDevice)
}

func TestConcurrentRequestsWhileReceiving(t *testing.T) {
	svc := New(DefaultConfig())
	s, n := startSession(t, svc)
	_, d := connect(t, s, svc, n, "Scanner 7")

	var maxPending atomic.Int32
	stop := make(chan struct{})
	received := make(chan struct{})
	go func() {
		defer close(received)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s.ReceiveOnce()
			var pending int32
			for _, info := range s.Queue() {
				if info.Status == queue.StatusPending {
					pending++
				}
			}
			for {
				cur := maxPending.Load()
				if pending <= cur || maxPending.CompareAndSwap(cur, pending) {
					break
				}
			}
		}
	}()

	const posters, perPoster = 4, 50
	var done, failed atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < posters; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPoster; i++ {
				err := s.GetBatteryLevel(d, func(_ int, err error) {
					if err != nil {
						failed.Add(1)
					}
					done.Add(1)
				})
				assert.NoError(t, err)
				err = s.SetDataConfirmation(d, wire.GoodConfirmation, func(err error) {
					if err != nil {
						failed.Add(1)
					}
					done.Add(1)
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return done.Load() == 2*posters*perPoster
	}, 10*time.Second, 5*time.Millisecond)
	close(stop)
	<-received

	assert.Equal(t, int32(0), failed.Load())
	assert.LessOrEqual(t, maxPending.Load(), int32(1))
	assert.Empty(t, s.Queue())
}
