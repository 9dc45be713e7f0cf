package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// maxBurst caps the messages Run drains per tick.
const maxBurst = 64

// Session connects an application to a capture service.
type Session struct {
	mu sync.Mutex

	layer    DeviceLayer
	notifier Notifier
	config   Config

	state State

	// gen counts Open calls so a late handshake from an earlier Open
	// cannot promote a newer one.
	gen       uint64
	handshake *wire.Result

	queue    *queue.Queue
	registry *Registry

	logger *slog.Logger
	plog   log.Logger
}

// New creates a closed session. A nil notifier is replaced by NopNotifier.
func New(layer DeviceLayer, notifier Notifier, config Config) *Session {
	config.applyDefaults()
	if notifier == nil {
		notifier = NopNotifier{}
	}

	q := queue.New(layer)
	q.SetLogger(config.Logger)

	r := NewRegistry(layer, q, config.PlaceholderLabel)
	r.SetLogger(config.Logger)

	return &Session{
		layer:    layer,
		notifier: notifier,
		config:   config,
		state:    StateClosed,
		queue:    q,
		registry: r,
		logger:   config.Logger,
		plog:     log.OrNoop(config.ProtocolLogger),
	}
}

// ID returns the session identifier used in protocol logs.
func (s *Session) ID() string {
	return s.config.SessionID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Devices returns the listed device records, see Registry.Devices.
func (s *Session) Devices() []*model.Device {
	return s.registry.Devices()
}

// Device returns the connected scanner with handle.
func (s *Session) Device(handle wire.Handle) (*model.Device, bool) {
	return s.registry.Lookup(handle)
}

// Queue returns a snapshot of the queued requests.
func (s *Session) Queue() []queue.Info {
	return s.queue.Snapshot()
}

// Open starts the handshake with the device layer and returns without
// waiting for it. The outcome is reported through
// Notifier.OnSessionInitializeComplete; the session becomes Open on the
// first ReceiveOnce after a successful handshake.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.gen++
	gen := s.gen
	s.handshake = nil
	s.state = StateOpening
	s.mu.Unlock()

	s.registry.Reset()
	s.logState(StateClosed, StateOpening, "open")
	s.debugLog("session: opening", "session", s.config.SessionID, "app", s.config.AppInfo.AppID)

	go s.runHandshake(ctx, gen)
	return nil
}

func (s *Session) runHandshake(ctx context.Context, gen uint64) {
	err := s.layer.Open(ctx, s.config.AppInfo)
	result := wire.ResultOf(err)

	s.mu.Lock()
	if s.gen == gen && s.state == StateOpening {
		s.handshake = &result
	}
	s.mu.Unlock()

	if err != nil {
		s.debugLog("session: handshake failed", "error", err)
		s.logError(result, err.Error(), "handshake")
	} else {
		s.debugLog("session: handshake acknowledged")
	}
	s.notifier.OnSessionInitializeComplete(result)
}

// Close asks the device layer to end the session. It is only valid while
// Open. The session reaches Closed when the Terminate message is received,
// or right away if the abort request itself fails.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotOpen
	}
	s.state = StateClosing
	s.mu.Unlock()

	s.logState(StateOpen, StateClosing, "close")

	abort := queue.NewAbort(func(_ *queue.Command, err error) {
		if err != nil {
			s.debugLog("session: abort failed", "error", err)
			s.logError(wire.ResultOf(err), err.Error(), "abort")
			s.terminate(nil, "abort failed")
		}
	})
	s.logRequest(abort)
	s.queue.Enqueue(abort)
	return nil
}

// ReceiveOnce handles at most one device-layer message, waiting no longer
// than Config.ReceiveTimeout, and then tries to dispatch the next queued
// request. Returns true if a message was handled.
func (s *Session) ReceiveOnce() bool {
	if !s.receiving() {
		return false
	}

	msg, err := s.layer.WaitForMessage(s.config.ReceiveTimeout)
	if err != nil {
		result := wire.ResultOf(err)
		s.debugLog("session: receive failed", "error", err)
		s.logError(result, err.Error(), "wait for message")
		s.terminate(&result, "receive failed")
		return false
	}
	if msg == nil {
		s.queue.TryDispatchHead()
		return false
	}

	s.logMessage(msg)
	if s.dispatch(msg) {
		s.queue.TryDispatchHead()
	}
	return true
}

// receiving applies a recorded handshake outcome and reports whether the
// device layer may be polled.
func (s *Session) receiving() bool {
	s.mu.Lock()
	switch s.state {
	case StateOpen, StateClosing:
		s.mu.Unlock()
		return true
	case StateOpening:
		if s.handshake == nil {
			s.mu.Unlock()
			return false
		}
		result := *s.handshake
		s.handshake = nil
		if !result.IsSuccess() {
			s.state = StateClosed
			s.mu.Unlock()
			s.logState(StateOpening, StateClosed, "handshake failed: "+result.String())
			return false
		}
		s.state = StateOpen
		s.mu.Unlock()

		s.logState(StateOpening, StateOpen, "handshake acknowledged")
		s.debugLog("session: open")
		s.queue.SetEnabled(true)
		return true
	default:
		s.mu.Unlock()
		return false
	}
}

// dispatch routes msg. Returns false once the session has terminated.
func (s *Session) dispatch(msg *wire.Message) bool {
	switch msg.Kind {
	case wire.MessageDeviceArrival:
		d, err := s.registry.OnArrival(msg.Identity, msg.Name, msg.DeviceType)
		result := wire.ResultOf(err)
		if err == nil {
			s.logDevice(d.Handle(), "ARRIVED", msg.Name)
		} else {
			s.logError(result, err.Error(), "open device "+msg.Identity)
		}
		s.notifier.OnDeviceArrival(result, d)

	case wire.MessageDeviceRemoval:
		if d := s.registry.OnRemoval(msg.Handle); d != nil {
			s.logDevice(msg.Handle, "REMOVED", d.Name())
			s.notifier.OnDeviceRemoval(d)
		}

	case wire.MessageGetComplete, wire.MessageSetComplete:
		s.queue.Complete(msg.Token, msg.Result, msg.Property)

	case wire.MessageEvent:
		s.dispatchEvent(msg)

	case wire.MessageTerminate:
		s.terminate(nil, "terminated by device layer")
		return false

	default:
		s.debugLog("session: unknown message kind", "kind", msg.Kind)
	}
	return true
}

func (s *Session) dispatchEvent(msg *wire.Message) {
	ev := msg.Event
	if ev == nil {
		s.debugLog("session: event message without payload", "handle", msg.Handle)
		return
	}

	switch ev.Kind {
	case wire.EventDecodedData:
		if ev.Data == nil {
			return
		}
		d, ok := s.registry.Lookup(msg.Handle)
		if !ok {
			s.debugLog("session: decoded data for unknown handle", "handle", msg.Handle)
			return
		}
		s.notifier.OnDecodedData(d, *ev.Data)

	case wire.EventError:
		s.notifier.OnError(ev.Code, ev.Message)

	default:
		// Power and button events are not routed.
		s.debugLog("session: event ignored", "kind", ev.Kind, "handle", msg.Handle, "value", ev.Value)
	}
}

// terminate closes the device layer and reports the end of the session.
// It runs at most once per Open.
func (s *Session) terminate(errResult *wire.Result, reason string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	old := s.state
	s.state = StateClosed
	s.handshake = nil
	s.queue.SetEnabled(false)
	s.mu.Unlock()

	dropped := s.queue.RemoveByDevice(wire.HandleNone)
	if err := s.layer.Close(); err != nil {
		s.debugLog("session: close device layer failed", "error", err)
	}
	s.registry.Reset()

	s.logState(old, StateClosed, reason)
	s.debugLog("session: terminated", "reason", reason, "dropped", dropped)

	if errResult != nil {
		s.notifier.OnErrorRetrievingMessage(*errResult)
	}
	s.notifier.OnSessionTerminated()
}

// Run calls ReceiveOnce every Config.ReceiveInterval until ctx is done,
// draining queued messages on each tick.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.ReceiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for i := 0; i < maxBurst && s.ReceiveOnce(); i++ {
			}
		}
	}
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
