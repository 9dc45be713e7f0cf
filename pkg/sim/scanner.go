package sim

import (
	"github.com/google/uuid"

	"github.com/capture-protocol/capture-go/pkg/wire"
)

// enabledByDefault lists the symbologies a new scanner reads out of the box.
var enabledByDefault = []wire.SymbologyID{
	wire.SymbologyCode39,
	wire.SymbologyCode128,
	wire.SymbologyDataMatrix,
	wire.SymbologyEan13,
	wire.SymbologyEan8,
	wire.SymbologyQRCode,
	wire.SymbologyUpcA,
}

// unsupported lists the symbologies simulated scanners cannot decode.
var unsupported = []wire.SymbologyID{
	wire.SymbologyDirectPartMarking,
	wire.SymbologyHanXin,
	wire.SymbologyUspsIntelligentMail,
}

type scanner struct {
	identity   string
	name       string
	deviceType uint32
	address    []byte
	version    wire.Version

	handle wire.Handle

	battery      uint8
	stand        wire.StandConfig
	decodeAction wire.DecodeAction
	localAck     bool
	postamble    string
	timers       wire.Timers
	symbologies  [wire.SymbologyCount]wire.SymbologyStatus
	dataStore    map[uint16][]byte

	lastConfirmation *wire.Confirmation
	lastSpecific     []byte
}

func newScanner(name string, deviceType uint32) *scanner {
	id := uuid.New()
	sc := &scanner{
		identity:     id.String(),
		name:         name,
		deviceType:   deviceType,
		address:      append([]byte(nil), id[:6]...),
		version:      wire.Version{Major: 10, Middle: 3, Minor: 1, Build: 3123, Year: 2025, Month: 11, Day: 4},
		battery:      80,
		stand:        wire.StandMobileMode,
		decodeAction: wire.DecodeActionBeep | wire.DecodeActionFlash | wire.DecodeActionRumble,
		localAck:     true,
		timers:       wire.Timers{TriggerLock: 4, PowerOffDisconnected: 15, PowerOffConnected: 120},
		dataStore:    make(map[uint16][]byte),
	}
	for _, s := range enabledByDefault {
		sc.symbologies[s] = wire.SymbologyEnabled
	}
	for _, s := range unsupported {
		sc.symbologies[s] = wire.SymbologyNotSupported
	}
	return sc
}

// get answers a read. A non-nil error rejects the request at dispatch.
func (sc *scanner) get(prop *wire.Property) (wire.Result, *wire.Property, error) {
	id := prop.ID
	switch id {
	case wire.PropDeviceFriendlyName:
		return wire.ResultSuccess, wire.StringProperty(id, sc.name), nil
	case wire.PropDeviceBluetoothAddress:
		return wire.ResultSuccess, wire.ArrayProperty(id, sc.address), nil
	case wire.PropDeviceType:
		return wire.ResultSuccess, wire.UlongProperty(id, sc.deviceType), nil
	case wire.PropDeviceFirmwareVersion:
		return wire.ResultSuccess, wire.VersionProperty(id, sc.version), nil
	case wire.PropDeviceBatteryLevel:
		return wire.ResultSuccess, wire.UlongProperty(id, wire.PackBattery(sc.battery, 0, 100)), nil
	case wire.PropDeviceStandConfig:
		return wire.ResultSuccess, wire.UlongProperty(id, uint32(sc.stand)), nil
	case wire.PropDeviceDecodeAction:
		return wire.ResultSuccess, wire.ByteProperty(id, uint8(sc.decodeAction)), nil
	case wire.PropDeviceLocalAcknowledgment:
		var v uint8
		if sc.localAck {
			v = 1
		}
		return wire.ResultSuccess, wire.ByteProperty(id, v), nil
	case wire.PropDevicePostamble:
		return wire.ResultSuccess, wire.StringProperty(id, sc.postamble), nil
	case wire.PropDeviceTimers:
		return wire.ResultSuccess, wire.ArrayProperty(id, wire.EncodeTimers(wire.TimerMaskAll, sc.timers)), nil
	case wire.PropDeviceSymbology:
		want, err := prop.AsSymbology()
		if err != nil || !want.ID.IsValid() {
			return 0, nil, wire.Errorf(wire.ResultInvalidParameter, "bad symbology request")
		}
		status := sc.symbologies[want.ID]
		if status == wire.SymbologyNotSupported {
			return wire.ResultNotSupported, nil, nil
		}
		return wire.ResultSuccess, wire.SymbologyProperty(id, wire.Symbology{ID: want.ID, Status: status, Name: want.ID.String()}), nil
	case wire.PropDeviceDataStore:
		want, err := prop.AsDataStore()
		if err != nil {
			return 0, nil, wire.Errorf(wire.ResultInvalidParameter, "bad data store request")
		}
		return wire.ResultSuccess, wire.DataStoreProperty(id, wire.DataStore{Index: want.Index, Data: sc.dataStore[want.Index]}), nil
	case wire.PropDeviceSpecific:
		cmd, err := prop.AsArray()
		if err != nil {
			return 0, nil, wire.Errorf(wire.ResultInvalidParameter, "bad device specific request")
		}
		// Echo the command with a status byte appended.
		return wire.ResultSuccess, wire.ArrayProperty(id, append(append([]byte(nil), cmd...), 0x00)), nil
	default:
		return 0, nil, wire.Errorf(wire.ResultNotSupported, "get %s", id)
	}
}

// set applies a write. A non-nil error rejects the request at dispatch.
func (sc *scanner) set(prop *wire.Property) (wire.Result, error) {
	bad := func() (wire.Result, error) {
		return 0, wire.Errorf(wire.ResultInvalidParameter, "set %s: wrong value type %s", prop.ID, prop.Type)
	}

	switch prop.ID {
	case wire.PropDeviceFriendlyName:
		v, err := prop.AsString()
		if err != nil {
			return bad()
		}
		sc.name = v
	case wire.PropDeviceStandConfig:
		v, err := prop.AsUlong()
		if err != nil {
			return bad()
		}
		sc.stand = wire.StandConfig(v)
	case wire.PropDeviceDecodeAction:
		v, err := prop.AsByte()
		if err != nil {
			return bad()
		}
		sc.decodeAction = wire.DecodeAction(v)
	case wire.PropDeviceLocalAcknowledgment:
		v, err := prop.AsByte()
		if err != nil {
			return bad()
		}
		sc.localAck = v != 0
	case wire.PropDeviceDataConfirmation:
		v, err := prop.AsUlong()
		if err != nil {
			return bad()
		}
		c := wire.UnpackConfirmation(v)
		sc.lastConfirmation = &c
	case wire.PropDevicePostamble:
		v, err := prop.AsString()
		if err != nil {
			return bad()
		}
		sc.postamble = v
	case wire.PropDeviceSpecific:
		v, err := prop.AsArray()
		if err != nil {
			return bad()
		}
		sc.lastSpecific = append([]byte(nil), v...)
	case wire.PropDeviceTimers:
		v, err := prop.AsArray()
		if err != nil {
			return bad()
		}
		mask, t, err := wire.DecodeTimers(v)
		if err != nil {
			return bad()
		}
		if mask&wire.TimerMaskTriggerLock != 0 {
			sc.timers.TriggerLock = t.TriggerLock
		}
		if mask&wire.TimerMaskPowerOffDisconnected != 0 {
			sc.timers.PowerOffDisconnected = t.PowerOffDisconnected
		}
		if mask&wire.TimerMaskPowerOffConnected != 0 {
			sc.timers.PowerOffConnected = t.PowerOffConnected
		}
	case wire.PropDeviceSymbology:
		v, err := prop.AsSymbology()
		if err != nil || !v.ID.IsValid() {
			return bad()
		}
		if sc.symbologies[v.ID] == wire.SymbologyNotSupported {
			return wire.ResultNotSupported, nil
		}
		if v.Status == wire.SymbologyEnabled {
			sc.symbologies[v.ID] = wire.SymbologyEnabled
		} else {
			sc.symbologies[v.ID] = wire.SymbologyDisabled
		}
	default:
		return 0, wire.Errorf(wire.ResultNotSupported, "set %s", prop.ID)
	}
	return wire.ResultSuccess, nil
}
