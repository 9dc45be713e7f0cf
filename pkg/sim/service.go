package sim

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Simulator errors.
var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrNotConnected  = errors.New("device not opened by the application")
)

// Config configures a Service.
type Config struct {
	// Version is reported for the capture version property.
	Version wire.Version

	// ConfirmationMode is the initial data confirmation mode.
	ConfirmationMode wire.DataConfirmationMode

	// Logger is the optional logger for debug output.
	// If nil, no logging is performed.
	Logger *slog.Logger
}

// DefaultConfig returns the default simulator configuration.
func DefaultConfig() Config {
	return Config{
		Version:          wire.Version{Major: 1, Middle: 5, Minor: 0, Build: 12},
		ConfirmationMode: wire.ConfirmationModeApp,
	}
}

// Request is one accepted GetProperty or SetProperty call.
type Request struct {
	Op       queue.Op
	Handle   wire.Handle
	Property wire.Property
	Token    wire.Token
}

// DeviceInfo describes a simulated scanner.
type DeviceInfo struct {
	Identity   string
	Name       string
	DeviceType uint32

	// Handle is non-zero while the application has the scanner open.
	Handle wire.Handle
}

type failure struct {
	result wire.Result
	count  int
}

// Service is a simulated capture service. It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	config Config
	open   bool
	app    wire.AppInfo
	mode   wire.DataConfirmationMode

	scanners   []*scanner
	handles    map[wire.Handle]*scanner
	nextHandle wire.Handle

	messages []*wire.Message
	wake     chan struct{}
	dropErr  error

	failNext     map[wire.PropertyID]*failure
	failDispatch map[wire.PropertyID]error
	requests     []Request

	logger *slog.Logger
}

var _ session.DeviceLayer = (*Service)(nil)

// New creates a simulator with no scanners.
func New(config Config) *Service {
	return &Service{
		config:       config,
		mode:         config.ConfirmationMode,
		handles:      make(map[wire.Handle]*scanner),
		wake:         make(chan struct{}, 1),
		failNext:     make(map[wire.PropertyID]*failure),
		failDispatch: make(map[wire.PropertyID]error),
		logger:       config.Logger,
	}
}

// Open starts a capture session. Scanners already added are announced with
// arrival messages.
func (s *Service) Open(ctx context.Context, app wire.AppInfo) error {
	if err := ctx.Err(); err != nil {
		return wire.Errorf(wire.ResultTimeout, "open: %v", err)
	}
	if app.AppID == "" {
		return wire.Errorf(wire.ResultInvalidParameter, "open: missing application id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return wire.Errorf(wire.ResultAlreadyOpen, "open: session in use by %s", s.app.AppID)
	}
	s.open = true
	s.app = app
	s.dropErr = nil
	for _, sc := range s.scanners {
		s.postLocked(arrival(sc))
	}
	s.debugLog("sim: session opened", "app", app.AppID, "scanners", len(s.scanners))
	return nil
}

// Close ends the capture session and releases every scanner handle.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return wire.Errorf(wire.ResultNotOpen, "close: no session")
	}
	s.open = false
	s.messages = nil
	for h, sc := range s.handles {
		sc.handle = wire.HandleNone
		delete(s.handles, h)
	}
	s.debugLog("sim: session closed")
	return nil
}

// WaitForMessage returns the next queued message, waiting up to timeout.
func (s *Service) WaitForMessage(timeout time.Duration) (*wire.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.dropErr != nil {
			err := s.dropErr
			s.mu.Unlock()
			return nil, err
		}
		if !s.open {
			s.mu.Unlock()
			return nil, wire.Errorf(wire.ResultNotOpen, "wait: no session")
		}
		if len(s.messages) > 0 {
			msg := s.messages[0]
			s.messages[0] = nil
			s.messages = s.messages[1:]
			s.mu.Unlock()
			return msg, nil
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-timer.C:
			return nil, nil
		}
	}
}

// GetProperty accepts a read; the answer arrives as a GetComplete message.
func (s *Service) GetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(queue.OpGet, handle, prop, token); err != nil {
		return err
	}

	var (
		result wire.Result
		reply  *wire.Property
		err    error
	)
	if handle == wire.HandleNone {
		result, reply, err = s.getSessionLocked(prop)
	} else {
		result, reply, err = s.handles[handle].get(prop)
	}
	if err != nil {
		return err
	}

	result = s.injectLocked(prop.ID, result)
	if !result.IsSuccess() {
		reply = nil
	}
	s.postLocked(&wire.Message{Kind: wire.MessageGetComplete, Handle: handle, Token: token, Result: result, Property: reply})
	return nil
}

// SetProperty accepts a write; the outcome arrives as a SetComplete message.
// The abort property ends the session with a Terminate message.
func (s *Service) SetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptLocked(queue.OpSet, handle, prop, token); err != nil {
		return err
	}

	var (
		result wire.Result
		err    error
	)
	if handle == wire.HandleNone {
		result, err = s.setSessionLocked(prop)
	} else {
		result, err = s.handles[handle].set(prop)
	}
	if err != nil {
		return err
	}

	result = s.injectLocked(prop.ID, result)
	s.postLocked(&wire.Message{Kind: wire.MessageSetComplete, Handle: handle, Token: token, Result: result})
	if prop.ID == wire.PropCaptureAbort && result.IsSuccess() {
		s.postLocked(&wire.Message{Kind: wire.MessageTerminate})
		s.debugLog("sim: session aborted")
	}
	return nil
}

// acceptLocked applies the checks every request goes through and records it.
func (s *Service) acceptLocked(op queue.Op, handle wire.Handle, prop *wire.Property, token wire.Token) error {
	if prop == nil {
		return wire.Errorf(wire.ResultInvalidParameter, "missing property")
	}
	if err := s.failDispatch[prop.ID]; err != nil {
		return err
	}
	if !s.open {
		return wire.Errorf(wire.ResultNotOpen, "no session")
	}
	if handle != wire.HandleNone {
		if _, ok := s.handles[handle]; !ok {
			return wire.Errorf(wire.ResultInvalidHandle, "handle %d", handle)
		}
	}
	s.requests = append(s.requests, Request{Op: op, Handle: handle, Property: *prop, Token: token})
	return nil
}

func (s *Service) getSessionLocked(prop *wire.Property) (wire.Result, *wire.Property, error) {
	switch prop.ID {
	case wire.PropCaptureVersion:
		return wire.ResultSuccess, wire.VersionProperty(prop.ID, s.config.Version), nil
	case wire.PropCaptureDataConfirmationMode:
		return wire.ResultSuccess, wire.ByteProperty(prop.ID, uint8(s.mode)), nil
	default:
		return 0, nil, wire.Errorf(wire.ResultNotSupported, "get %s", prop.ID)
	}
}

func (s *Service) setSessionLocked(prop *wire.Property) (wire.Result, error) {
	switch prop.ID {
	case wire.PropCaptureAbort:
		return wire.ResultSuccess, nil
	case wire.PropCaptureDataConfirmationMode:
		v, err := prop.AsByte()
		if err != nil || wire.DataConfirmationMode(v) > wire.ConfirmationModeApp {
			return 0, wire.Errorf(wire.ResultInvalidParameter, "set %s", prop.ID)
		}
		s.mode = wire.DataConfirmationMode(v)
		return wire.ResultSuccess, nil
	default:
		return 0, wire.Errorf(wire.ResultNotSupported, "set %s", prop.ID)
	}
}

// injectLocked replaces result with a pending FailNext failure for id.
func (s *Service) injectLocked(id wire.PropertyID, result wire.Result) wire.Result {
	f, ok := s.failNext[id]
	if !ok {
		return result
	}
	f.count--
	if f.count <= 0 {
		delete(s.failNext, id)
	}
	return f.result
}

// OpenDevice opens an announced scanner for the application.
func (s *Service) OpenDevice(identity string) (wire.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return wire.HandleNone, wire.Errorf(wire.ResultNotOpen, "open device: no session")
	}
	sc := s.findLocked(identity)
	if sc == nil {
		return wire.HandleNone, wire.Errorf(wire.ResultInvalidParameter, "open device: unknown identity %s", identity)
	}
	if sc.handle != wire.HandleNone {
		return sc.handle, nil
	}
	s.nextHandle++
	sc.handle = s.nextHandle
	s.handles[sc.handle] = sc
	s.debugLog("sim: device opened", "identity", identity, "handle", sc.handle)
	return sc.handle, nil
}

// CloseDevice releases a scanner handle.
func (s *Service) CloseDevice(handle wire.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.handles[handle]
	if !ok {
		return wire.Errorf(wire.ResultInvalidHandle, "close device: handle %d", handle)
	}
	sc.handle = wire.HandleNone
	delete(s.handles, handle)
	return nil
}

func (s *Service) findLocked(identity string) *scanner {
	for _, sc := range s.scanners {
		if sc.identity == identity {
			return sc
		}
	}
	return nil
}

func (s *Service) postLocked(msg *wire.Message) {
	if !s.open {
		return
	}
	s.messages = append(s.messages, msg)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func arrival(sc *scanner) *wire.Message {
	return &wire.Message{
		Kind:       wire.MessageDeviceArrival,
		Identity:   sc.identity,
		Name:       sc.name,
		DeviceType: sc.deviceType,
	}
}

// AddDevice connects a new scanner and returns its identity.
func (s *Service) AddDevice(name string, deviceType uint32) string {
	sc := newScanner(name, deviceType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanners = append(s.scanners, sc)
	s.postLocked(arrival(sc))
	s.debugLog("sim: device added", "identity", sc.identity, "name", name)
	return sc.identity
}

// RemoveDevice disconnects a scanner.
func (s *Service) RemoveDevice(identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.scanners, func(sc *scanner) bool { return sc.identity == identity })
	if i < 0 {
		return ErrUnknownDevice
	}
	sc := s.scanners[i]
	s.scanners = slices.Delete(s.scanners, i, i+1)
	if sc.handle != wire.HandleNone {
		s.postLocked(&wire.Message{Kind: wire.MessageDeviceRemoval, Handle: sc.handle, Identity: identity, Name: sc.name})
	}
	s.debugLog("sim: device removed", "identity", identity)
	return nil
}

// Scan delivers decoded data from an opened scanner.
func (s *Service) Scan(identity string, symbology wire.SymbologyID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.findLocked(identity)
	if sc == nil {
		return ErrUnknownDevice
	}
	if sc.handle == wire.HandleNone {
		return ErrNotConnected
	}
	s.postLocked(&wire.Message{
		Kind:   wire.MessageEvent,
		Handle: sc.handle,
		Event: &wire.Event{
			Kind: wire.EventDecodedData,
			Data: &wire.DecodedData{
				SymbologyID:   symbology,
				SymbologyName: symbology.String(),
				Data:          append([]byte(nil), data...),
			},
		},
	})
	return nil
}

// ReportError delivers an error event.
func (s *Service) ReportError(code wire.Result, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postLocked(&wire.Message{Kind: wire.MessageEvent, Event: &wire.Event{Kind: wire.EventError, Code: code, Message: message}})
}

// SetBattery changes a scanner's battery level and emits a power event.
func (s *Service) SetBattery(identity string, percent uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.findLocked(identity)
	if sc == nil {
		return ErrUnknownDevice
	}
	sc.battery = min(percent, 100)
	if sc.handle != wire.HandleNone {
		s.postLocked(&wire.Message{
			Kind:   wire.MessageEvent,
			Handle: sc.handle,
			Event:  &wire.Event{Kind: wire.EventPower, Value: wire.PackBattery(sc.battery, 0, 100)},
		})
	}
	return nil
}

// FailNext makes the next n completions for id carry result.
func (s *Service) FailNext(id wire.PropertyID, result wire.Result, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		delete(s.failNext, id)
		return
	}
	s.failNext[id] = &failure{result: result, count: n}
}

// FailDispatch makes requests for id fail immediately with err until called
// again with a nil error.
func (s *Service) FailDispatch(id wire.PropertyID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failDispatch, id)
		return
	}
	s.failDispatch[id] = err
}

// Drop breaks the message source: WaitForMessage fails until the next Open.
func (s *Service) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropErr = wire.Errorf(wire.ResultTransport, "connection to capture service lost")
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Requests returns the accepted requests in order.
func (s *Service) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Devices lists the simulated scanners.
func (s *Service) Devices() []DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeviceInfo, len(s.scanners))
	for i, sc := range s.scanners {
		out[i] = DeviceInfo{Identity: sc.identity, Name: sc.name, DeviceType: sc.deviceType, Handle: sc.handle}
	}
	return out
}

// LastConfirmation returns the last data confirmation written to a scanner.
func (s *Service) LastConfirmation(identity string) (wire.Confirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.findLocked(identity)
	if sc == nil || sc.lastConfirmation == nil {
		return wire.Confirmation{}, false
	}
	return *sc.lastConfirmation, true
}

// IsOpen reports whether an application session is open.
func (s *Service) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Service) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
