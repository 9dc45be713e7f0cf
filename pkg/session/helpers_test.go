package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

type request struct {
	op     queue.Op
	handle wire.Handle
	prop   *wire.Property
	token  wire.Token
}

// fakeLayer is a scriptable DeviceLayer. Messages are delivered in push
// order; accepted requests are recorded.
type fakeLayer struct {
	mu sync.Mutex

	openErr       error
	openDeviceErr error
	recvErr       error
	reject        map[wire.PropertyID]error

	messages      []*wire.Message
	requests      []request
	nextHandle    wire.Handle
	opened        int
	closed        int
	closedDevices []wire.Handle
}

func newFakeLayer() *fakeLayer {
	return &fakeLayer{reject: make(map[wire.PropertyID]error)}
}

func (f *fakeLayer) Open(ctx context.Context, app wire.AppInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return f.openErr
}

func (f *fakeLayer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeLayer) WaitForMessage(time.Duration) (*wire.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	if len(f.messages) == 0 {
		return nil, nil
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeLayer) record(op queue.Op, h wire.Handle, p *wire.Property, tok wire.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.reject[p.ID]; err != nil {
		return err
	}
	f.requests = append(f.requests, request{op: op, handle: h, prop: p, token: tok})
	return nil
}

func (f *fakeLayer) GetProperty(h wire.Handle, p *wire.Property, tok wire.Token) error {
	return f.record(queue.OpGet, h, p, tok)
}

func (f *fakeLayer) SetProperty(h wire.Handle, p *wire.Property, tok wire.Token) error {
	return f.record(queue.OpSet, h, p, tok)
}

func (f *fakeLayer) OpenDevice(string) (wire.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openDeviceErr != nil {
		return wire.HandleNone, f.openDeviceErr
	}
	f.nextHandle++
	return f.nextHandle, nil
}

func (f *fakeLayer) CloseDevice(h wire.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedDevices = append(f.closedDevices, h)
	return nil
}

func (f *fakeLayer) push(msg *wire.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeLayer) setRecvErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvErr = err
}

func (f *fakeLayer) sent() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.requests...)
}

func (f *fakeLayer) last() request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// respond completes the most recently dispatched request.
func (f *fakeLayer) respond(result wire.Result, reply *wire.Property) {
	r := f.last()
	kind := wire.MessageGetComplete
	if r.op == queue.OpSet {
		kind = wire.MessageSetComplete
	}
	f.push(&wire.Message{Kind: kind, Handle: r.handle, Token: r.token, Result: result, Property: reply})
}

// recorder captures notifications.
type recorder struct {
	mu sync.Mutex

	arrivalResults []wire.Result
	arrivals       []*model.Device
	removals       []*model.Device
	decoded        []wire.DecodedData
	errors         []wire.Result
	errorMessages  []string
	initResults    []wire.Result
	terminated     int
	recvErrors     []wire.Result

	onDecoded func(d *model.Device, data wire.DecodedData)
}

func (r *recorder) OnDeviceArrival(result wire.Result, d *model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrivalResults = append(r.arrivalResults, result)
	r.arrivals = append(r.arrivals, d)
}

func (r *recorder) OnDeviceRemoval(d *model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removals = append(r.removals, d)
}

func (r *recorder) OnDecodedData(d *model.Device, data wire.DecodedData) {
	r.mu.Lock()
	r.decoded = append(r.decoded, data)
	fn := r.onDecoded
	r.mu.Unlock()
	if fn != nil {
		fn(d, data)
	}
}

func (r *recorder) OnError(result wire.Result, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, result)
	r.errorMessages = append(r.errorMessages, message)
}

func (r *recorder) OnSessionInitializeComplete(result wire.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initResults = append(r.initResults, result)
}

func (r *recorder) OnSessionTerminated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated++
}

func (r *recorder) OnErrorRetrievingMessage(result wire.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recvErrors = append(r.recvErrors, result)
}

func (r *recorder) terminations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated
}

func (r *recorder) initCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.initResults)
}

func newTestSession(t *testing.T, cfg Config) (*Session, *fakeLayer, *recorder) {
	t.Helper()
	layer := newFakeLayer()
	rec := &recorder{}
	return New(layer, rec, cfg), layer, rec
}

// openSession returns a session that has reached StateOpen.
func openSession(t *testing.T, cfg Config) (*Session, *fakeLayer, *recorder) {
	t.Helper()
	s, layer, rec := newTestSession(t, cfg)
	require.NoError(t, s.Open(context.Background()))
	waitOpen(t, s)
	return s, layer, rec
}

func waitOpen(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.ReceiveOnce()
		return s.State() == StateOpen
	}, time.Second, time.Millisecond)
}

// drain handles every queued message.
func drain(s *Session) {
	for s.ReceiveOnce() {
	}
}

// arrive delivers an arrival and returns the new record.
func arrive(t *testing.T, s *Session, layer *fakeLayer, name string) *model.Device {
	t.Helper()
	before := s.registry.Len()
	layer.push(&wire.Message{Kind: wire.MessageDeviceArrival, Identity: "id-" + name, Name: name, DeviceType: wire.DeviceTypeScanner7})
	require.True(t, s.ReceiveOnce())
	require.Equal(t, before+1, s.registry.Len())
	devices := s.Devices()
	return devices[len(devices)-1]
}
