package model

import (
	"sync"

	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Field identifies which part of a Device changed.
type Field uint8

const (
	FieldName Field = iota + 1
	FieldAddress
	FieldVersion
	FieldBatteryLevel
	FieldPostamble
	FieldDecodeAction
	FieldLocalAcknowledgment
	FieldSymbology
	FieldDeviceType
)

// String returns the field name.
func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldAddress:
		return "address"
	case FieldVersion:
		return "version"
	case FieldBatteryLevel:
		return "battery"
	case FieldPostamble:
		return "postamble"
	case FieldDecodeAction:
		return "decodeAction"
	case FieldLocalAcknowledgment:
		return "localAck"
	case FieldSymbology:
		return "symbology"
	case FieldDeviceType:
		return "deviceType"
	default:
		return "unknown"
	}
}

// Change describes one setter call on a Device.
type Change struct {
	Field Field

	// Symbology is set for FieldSymbology changes.
	Symbology wire.SymbologyID
}

// Observer is notified when a Device changes.
type Observer interface {
	OnDeviceChanged(d *Device, change Change)
}

// SymbologyEntry is one row of a scanner's symbology table.
type SymbologyEntry struct {
	ID     wire.SymbologyID
	Name   string
	Status wire.SymbologyStatus
}

// Device is the live record for one connected scanner.
type Device struct {
	mu sync.RWMutex

	handle      wire.Handle
	identity    string
	placeholder bool

	name         string
	deviceType   uint32
	address      []byte
	version      wire.Version
	batteryLevel int
	postamble    string
	decodeAction wire.DecodeAction
	localAck     bool
	symbologies  [wire.SymbologyCount]SymbologyEntry

	observers []Observer
}

// NewDevice creates the record for a scanner the device layer opened.
func NewDevice(handle wire.Handle, identity, name string, deviceType uint32) *Device {
	d := &Device{
		handle:       handle,
		identity:     identity,
		name:         name,
		deviceType:   deviceType,
		batteryLevel: -1,
	}
	for i := range d.symbologies {
		id := wire.SymbologyID(i)
		d.symbologies[i] = SymbologyEntry{ID: id, Name: id.String(), Status: wire.SymbologyNotSupported}
	}
	return d
}

// NewPlaceholder creates the synthetic "no scanner" record.
func NewPlaceholder(label string) *Device {
	d := NewDevice(wire.HandleNone, "", label, wire.DeviceTypeUnknown)
	d.placeholder = true
	return d
}

// IsPlaceholder returns true for the synthetic record.
func (d *Device) IsPlaceholder() bool {
	return d.placeholder
}

// Handle returns the device-layer handle. It never changes.
func (d *Device) Handle() wire.Handle {
	return d.handle
}

// Identity returns the device-layer identity reported at arrival.
func (d *Device) Identity() string {
	return d.identity
}

// Name returns the friendly name.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// DeviceType returns the scanner model.
func (d *Device) DeviceType() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.deviceType
}

// Address returns a copy of the Bluetooth address.
func (d *Device) Address() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.address...)
}

// Version returns the firmware version.
func (d *Device) Version() wire.Version {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// BatteryLevel returns the battery percentage, or -1 if not yet known.
func (d *Device) BatteryLevel() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.batteryLevel
}

// Postamble returns the suffix the scanner appends to decoded data.
func (d *Device) Postamble() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.postamble
}

// DecodeAction returns the local decode feedback setting.
func (d *Device) DecodeAction() wire.DecodeAction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.decodeAction
}

// LocalAcknowledgment returns whether the scanner acknowledges reads itself.
func (d *Device) LocalAcknowledgment() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.localAck
}

// Symbology returns one symbology table entry.
func (d *Device) Symbology(id wire.SymbologyID) (SymbologyEntry, bool) {
	if !id.IsValid() {
		return SymbologyEntry{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.symbologies[id], true
}

// Symbologies returns a copy of the symbology table.
func (d *Device) Symbologies() []SymbologyEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]SymbologyEntry, len(d.symbologies))
	copy(out, d.symbologies[:])
	return out
}

// SetName updates the friendly name.
func (d *Device) SetName(name string) {
	d.mu.Lock()
	d.name = name
	d.mu.Unlock()
	d.notify(Change{Field: FieldName})
}

// SetDeviceType updates the scanner model.
func (d *Device) SetDeviceType(deviceType uint32) {
	d.mu.Lock()
	d.deviceType = deviceType
	d.mu.Unlock()
	d.notify(Change{Field: FieldDeviceType})
}

// SetAddress updates the Bluetooth address.
func (d *Device) SetAddress(addr []byte) {
	d.mu.Lock()
	d.address = append([]byte(nil), addr...)
	d.mu.Unlock()
	d.notify(Change{Field: FieldAddress})
}

// SetVersion updates the firmware version.
func (d *Device) SetVersion(v wire.Version) {
	d.mu.Lock()
	d.version = v
	d.mu.Unlock()
	d.notify(Change{Field: FieldVersion})
}

// SetBatteryLevel updates the battery percentage.
func (d *Device) SetBatteryLevel(level int) {
	d.mu.Lock()
	d.batteryLevel = level
	d.mu.Unlock()
	d.notify(Change{Field: FieldBatteryLevel})
}

// SetPostamble updates the output suffix.
func (d *Device) SetPostamble(suffix string) {
	d.mu.Lock()
	d.postamble = suffix
	d.mu.Unlock()
	d.notify(Change{Field: FieldPostamble})
}

// SetDecodeAction updates the decode feedback setting.
func (d *Device) SetDecodeAction(a wire.DecodeAction) {
	d.mu.Lock()
	d.decodeAction = a
	d.mu.Unlock()
	d.notify(Change{Field: FieldDecodeAction})
}

// SetLocalAcknowledgment updates the local acknowledgment flag.
func (d *Device) SetLocalAcknowledgment(on bool) {
	d.mu.Lock()
	d.localAck = on
	d.mu.Unlock()
	d.notify(Change{Field: FieldLocalAcknowledgment})
}

// SetSymbology updates one symbology table entry.
// IDs outside the table are ignored.
func (d *Device) SetSymbology(s wire.Symbology) {
	if !s.ID.IsValid() {
		return
	}
	d.mu.Lock()
	entry := &d.symbologies[s.ID]
	entry.Status = s.Status
	if s.Name != "" {
		entry.Name = s.Name
	}
	d.mu.Unlock()
	d.notify(Change{Field: FieldSymbology, Symbology: s.ID})
}

// Subscribe adds an observer for change notifications.
func (d *Device) Subscribe(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Unsubscribe removes an observer. Observers are compared with ==, so the
// dynamic type must be comparable (typically a pointer).
func (d *Device) Unsubscribe(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.observers {
		if s == o {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

// notify calls every observer outside the lock so observers may read the device.
func (d *Device) notify(change Change) {
	d.mu.RLock()
	obs := make([]Observer, len(d.observers))
	copy(obs, d.observers)
	d.mu.RUnlock()

	for _, o := range obs {
		o.OnDeviceChanged(d, change)
	}
}

// Info is a point-in-time copy of a Device for display.
type Info struct {
	Handle       wire.Handle
	Identity     string
	Placeholder  bool
	Name         string
	DeviceType   uint32
	Address      string
	Version      string
	BatteryLevel int
	Postamble    string
	DecodeAction wire.DecodeAction
	LocalAck     bool
}

// Snapshot returns a copy of the displayable fields.
func (d *Device) Snapshot() Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info := Info{
		Handle:       d.handle,
		Identity:     d.identity,
		Placeholder:  d.placeholder,
		Name:         d.name,
		DeviceType:   d.deviceType,
		BatteryLevel: d.batteryLevel,
		Postamble:    d.postamble,
		DecodeAction: d.decodeAction,
		LocalAck:     d.localAck,
	}
	if len(d.address) > 0 {
		info.Address = wire.FormatAddress(d.address)
	}
	if d.version != (wire.Version{}) {
		info.Version = d.version.String()
	}
	return info
}
