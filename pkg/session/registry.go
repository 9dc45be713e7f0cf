package session

import (
	"log/slog"
	"sync"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// DeviceOpener opens and releases per-scanner sessions in the device layer.
type DeviceOpener interface {
	OpenDevice(identity string) (wire.Handle, error)
	CloseDevice(handle wire.Handle) error
}

// CommandCanceller drops queued work for a scanner.
type CommandCanceller interface {
	RemoveByDevice(handle wire.Handle) int
}

// Registry tracks the connected scanners in arrival order. While no scanner
// is connected and a placeholder label is set, it holds a single placeholder
// record instead. It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	opener      DeviceOpener
	canceller   CommandCanceller
	label       string
	devices     []*model.Device
	placeholder *model.Device

	logger *slog.Logger
}

// NewRegistry creates a registry seeded with the placeholder, if label is
// non-empty.
func NewRegistry(opener DeviceOpener, canceller CommandCanceller, label string) *Registry {
	r := &Registry{
		opener:    opener,
		canceller: canceller,
		label:     label,
	}
	if label != "" {
		r.placeholder = model.NewPlaceholder(label)
	}
	r.Reset()
	return r
}

// SetLogger sets the logger for debug output. nil disables logging.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// OnArrival opens a device-layer session for identity and records the
// scanner. On failure nothing is recorded and the error is returned.
func (r *Registry) OnArrival(identity, name string, deviceType uint32) (*model.Device, error) {
	handle, err := r.opener.OpenDevice(identity)
	if err != nil {
		r.debugLog("registry: open device failed", "identity", identity, "error", err)
		return nil, err
	}

	d := model.NewDevice(handle, identity, name, deviceType)

	r.mu.Lock()
	r.devices = append(r.devices, d)
	count := len(r.devices)
	r.mu.Unlock()

	r.debugLog("registry: device added", "handle", handle, "name", name, "count", count)
	return d, nil
}

// OnRemoval forgets the scanner with handle and cancels its queued commands.
// The device-layer handle is released whether or not a record was found.
// Returns the removed record, or nil.
func (r *Registry) OnRemoval(handle wire.Handle) *model.Device {
	r.mu.Lock()
	var removed *model.Device
	for i, d := range r.devices {
		if d.Handle() == handle {
			removed = d
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}
	count := len(r.devices)
	r.mu.Unlock()

	if removed != nil {
		n := r.canceller.RemoveByDevice(handle)
		r.debugLog("registry: device removed", "handle", handle, "cancelled", n, "count", count)
	} else {
		r.debugLog("registry: removal for unknown handle", "handle", handle)
	}

	if err := r.opener.CloseDevice(handle); err != nil {
		r.debugLog("registry: close device failed", "handle", handle, "error", err)
	}
	return removed
}

// Lookup returns the scanner with handle.
func (r *Registry) Lookup(handle wire.Handle) (*model.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.Handle() == handle {
			return d, true
		}
	}
	return nil, false
}

// Devices returns the listed records: the connected scanners, or the
// placeholder alone when none are connected and a label is configured.
func (r *Registry) Devices() []*model.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.devices) == 0 {
		if r.placeholder != nil {
			return []*model.Device{r.placeholder}
		}
		return nil
	}
	out := make([]*model.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Len returns the number of connected scanners. The placeholder is not counted.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Reset forgets every scanner without touching the device layer.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = nil
}

func (r *Registry) debugLog(msg string, args ...any) {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
