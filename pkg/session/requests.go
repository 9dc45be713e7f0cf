package session

import (
	"fmt"
	"sync"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Requests are queued and complete asynchronously. Callbacks may be nil and
// run on the goroutine that calls ReceiveOnce. A successful reply updates
// the Device record before the callback runs.
//
// Device requests return ErrNoDevice for nil or placeholder records. Requests
// made while the session is not open stay queued until it opens.

func deviceHandle(d *model.Device) (wire.Handle, error) {
	if d == nil || d.IsPlaceholder() {
		return wire.HandleNone, ErrNoDevice
	}
	return d.Handle(), nil
}

func (s *Session) enqueue(cmd *queue.Command, confirmation bool) {
	s.logRequest(cmd)
	if confirmation {
		s.queue.EnqueueConfirmation(cmd)
		return
	}
	s.queue.Enqueue(cmd)
}

// get queues a read whose reply is decoded to T, applied to the record and
// handed to cb.
func get[T any](s *Session, handle wire.Handle, prop *wire.Property,
	decode func(*wire.Property) (T, error), apply func(T), cb func(T, error)) {
	s.enqueue(queue.NewGet(handle, prop, func(cmd *queue.Command, err error) {
		var v T
		if err == nil {
			v, err = decode(cmd.Reply())
		}
		if err == nil && apply != nil {
			apply(v)
		}
		if cb != nil {
			cb(v, err)
		}
	}), false)
}

// set queues a write; apply runs on success.
func (s *Session) set(handle wire.Handle, prop *wire.Property, apply func(), cb func(error), confirmation bool) {
	s.enqueue(queue.NewSet(handle, prop, func(_ *queue.Command, err error) {
		if err == nil && apply != nil {
			apply()
		}
		if cb != nil {
			cb(err)
		}
	}), confirmation)
}

func asByte[T ~uint8](p *wire.Property) (T, error) {
	v, err := p.AsByte()
	return T(v), err
}

func asUlong[T ~uint32](p *wire.Property) (T, error) {
	v, err := p.AsUlong()
	return T(v), err
}

func asBool(p *wire.Property) (bool, error) {
	v, err := p.AsByte()
	return v != 0, err
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// GetFriendlyName reads the scanner name.
func (s *Session) GetFriendlyName(d *model.Device, cb func(string, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceFriendlyName), (*wire.Property).AsString, d.SetName, cb)
	return nil
}

// SetFriendlyName renames the scanner.
func (s *Session) SetFriendlyName(d *model.Device, name string, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.StringProperty(wire.PropDeviceFriendlyName, name), func() { d.SetName(name) }, cb, false)
	return nil
}

// GetBluetoothAddress reads the scanner's Bluetooth address.
func (s *Session) GetBluetoothAddress(d *model.Device, cb func([]byte, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceBluetoothAddress), (*wire.Property).AsArray, d.SetAddress, cb)
	return nil
}

// GetDeviceType reads the scanner model identifier.
func (s *Session) GetDeviceType(d *model.Device, cb func(uint32, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceType), (*wire.Property).AsUlong, d.SetDeviceType, cb)
	return nil
}

// GetFirmwareVersion reads the scanner firmware version.
func (s *Session) GetFirmwareVersion(d *model.Device, cb func(wire.Version, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceFirmwareVersion), (*wire.Property).AsVersion, d.SetVersion, cb)
	return nil
}

// GetBatteryLevel reads the battery level as a percentage.
func (s *Session) GetBatteryLevel(d *model.Device, cb func(int, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	decode := func(p *wire.Property) (int, error) {
		v, err := p.AsUlong()
		return wire.BatteryPercent(v), err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceBatteryLevel), decode, d.SetBatteryLevel, cb)
	return nil
}

// GetStandConfig reads the stand configuration.
func (s *Session) GetStandConfig(d *model.Device, cb func(wire.StandConfig, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceStandConfig), asUlong[wire.StandConfig], nil, cb)
	return nil
}

// SetStandConfig writes the stand configuration.
func (s *Session) SetStandConfig(d *model.Device, cfg wire.StandConfig, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.UlongProperty(wire.PropDeviceStandConfig, uint32(cfg)), nil, cb, false)
	return nil
}

// GetDecodeAction reads what the scanner does locally on a good read.
func (s *Session) GetDecodeAction(d *model.Device, cb func(wire.DecodeAction, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceDecodeAction), asByte[wire.DecodeAction], d.SetDecodeAction, cb)
	return nil
}

// SetDecodeAction writes the local decode action.
func (s *Session) SetDecodeAction(d *model.Device, action wire.DecodeAction, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.ByteProperty(wire.PropDeviceDecodeAction, uint8(action)),
		func() { d.SetDecodeAction(action) }, cb, false)
	return nil
}

// GetLocalAcknowledgment reads whether the scanner acknowledges reads itself.
func (s *Session) GetLocalAcknowledgment(d *model.Device, cb func(bool, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceLocalAcknowledgment), asBool, d.SetLocalAcknowledgment, cb)
	return nil
}

// SetLocalAcknowledgment turns local acknowledgment on or off.
func (s *Session) SetLocalAcknowledgment(d *model.Device, on bool, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.ByteProperty(wire.PropDeviceLocalAcknowledgment, boolByte(on)),
		func() { d.SetLocalAcknowledgment(on) }, cb, false)
	return nil
}

// SetDataConfirmation acknowledges a decoded read on the scanner. It is
// queued ahead of ordinary requests, directly behind the request in flight.
func (s *Session) SetDataConfirmation(d *model.Device, c wire.Confirmation, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.UlongProperty(wire.PropDeviceDataConfirmation, c.Pack()), nil, cb, true)
	return nil
}

// GetDataConfirmationMode reads who confirms decoded data.
func (s *Session) GetDataConfirmationMode(cb func(wire.DataConfirmationMode, error)) {
	get(s, wire.HandleNone, wire.NoneProperty(wire.PropCaptureDataConfirmationMode),
		asByte[wire.DataConfirmationMode], nil, cb)
}

// SetDataConfirmationMode selects who confirms decoded data.
func (s *Session) SetDataConfirmationMode(mode wire.DataConfirmationMode, cb func(error)) {
	s.set(wire.HandleNone, wire.ByteProperty(wire.PropCaptureDataConfirmationMode, uint8(mode)), nil, cb, false)
}

// GetSymbology reads the status of one symbology.
func (s *Session) GetSymbology(d *model.Device, id wire.SymbologyID, cb func(wire.Symbology, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	if !id.IsValid() || id == wire.SymbologyNotSpecified {
		return fmt.Errorf("%w: symbology %d", ErrInvalidArg, id)
	}
	s.getSymbology(d, h, id, cb)
	return nil
}

func (s *Session) getSymbology(d *model.Device, h wire.Handle, id wire.SymbologyID, cb func(wire.Symbology, error)) {
	prop := wire.SymbologyProperty(wire.PropDeviceSymbology, wire.Symbology{ID: id})
	get(s, h, prop, (*wire.Property).AsSymbology, d.SetSymbology, cb)
}

// SetSymbology enables or disables one symbology.
func (s *Session) SetSymbology(d *model.Device, id wire.SymbologyID, enabled bool, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	if !id.IsValid() || id == wire.SymbologyNotSpecified {
		return fmt.Errorf("%w: symbology %d", ErrInvalidArg, id)
	}
	sym := wire.Symbology{ID: id, Status: wire.SymbologyDisabled}
	if enabled {
		sym.Status = wire.SymbologyEnabled
	}
	s.set(h, wire.SymbologyProperty(wire.PropDeviceSymbology, sym), func() { d.SetSymbology(sym) }, cb, false)
	return nil
}

// GetAllSymbologies reads every symbology in the table. Symbologies the
// scanner rejects as unsupported are recorded as such and are not an error.
// cb runs once, after the last reply, with the first other failure.
// A sweep cut short, because a per-symbology read was rejected at dispatch
// or cancelled when the scanner was removed, never runs cb.
func (s *Session) GetAllSymbologies(d *model.Device, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}

	var (
		mu        sync.Mutex
		remaining = int(wire.SymbologyCount) - 1
		firstErr  error
	)
	for id := wire.SymbologyNotSpecified + 1; id < wire.SymbologyCount; id++ {
		s.getSymbology(d, h, id, func(_ wire.Symbology, err error) {
			if wire.ResultOf(err) == wire.ResultNotSupported {
				d.SetSymbology(wire.Symbology{ID: id, Status: wire.SymbologyNotSupported})
				err = nil
			}
			mu.Lock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			remaining--
			done := remaining == 0
			result := firstErr
			mu.Unlock()
			if done && cb != nil {
				cb(result)
			}
		})
	}
	return nil
}

// GetDeviceSpecific sends an opaque scanner command and returns its answer.
func (s *Session) GetDeviceSpecific(d *model.Device, command []byte, cb func([]byte, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.ArrayProperty(wire.PropDeviceSpecific, command), (*wire.Property).AsArray, nil, cb)
	return nil
}

// SetDeviceSpecific writes an opaque scanner payload.
func (s *Session) SetDeviceSpecific(d *model.Device, payload []byte, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.ArrayProperty(wire.PropDeviceSpecific, payload), nil, cb, false)
	return nil
}

// GetTimers reads the trigger lock and power-off timers.
func (s *Session) GetTimers(d *model.Device, cb func(wire.Timers, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	decode := func(p *wire.Property) (wire.Timers, error) {
		data, err := p.AsArray()
		if err != nil {
			return wire.Timers{}, err
		}
		_, t, err := wire.DecodeTimers(data)
		return t, err
	}
	get(s, h, wire.NoneProperty(wire.PropDeviceTimers), decode, nil, cb)
	return nil
}

// SetTimers writes the timers selected by mask.
func (s *Session) SetTimers(d *model.Device, mask uint16, t wire.Timers, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	if mask == 0 {
		return fmt.Errorf("%w: empty timer mask", ErrInvalidArg)
	}
	s.set(h, wire.ArrayProperty(wire.PropDeviceTimers, wire.EncodeTimers(mask, t)), nil, cb, false)
	return nil
}

// GetDataStore reads one slot of the scanner's data store.
func (s *Session) GetDataStore(d *model.Device, index uint16, cb func(wire.DataStore, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	prop := wire.DataStoreProperty(wire.PropDeviceDataStore, wire.DataStore{Index: index})
	get(s, h, prop, (*wire.Property).AsDataStore, nil, cb)
	return nil
}

// GetPostamble reads the suffix the scanner appends to decoded data.
func (s *Session) GetPostamble(d *model.Device, cb func(string, error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	get(s, h, wire.NoneProperty(wire.PropDevicePostamble), (*wire.Property).AsString, d.SetPostamble, cb)
	return nil
}

// SetPostamble writes the decoded data suffix.
func (s *Session) SetPostamble(d *model.Device, suffix string, cb func(error)) error {
	h, err := deviceHandle(d)
	if err != nil {
		return err
	}
	s.set(h, wire.StringProperty(wire.PropDevicePostamble, suffix), func() { d.SetPostamble(suffix) }, cb, false)
	return nil
}

// GetCaptureVersion reads the capture service version.
func (s *Session) GetCaptureVersion(cb func(wire.Version, error)) {
	get(s, wire.HandleNone, wire.NoneProperty(wire.PropCaptureVersion), (*wire.Property).AsVersion, nil, cb)
}
