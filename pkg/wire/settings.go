package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// DecodeAction bits select the local feedback a scanner gives on a good read.
type DecodeAction uint8

const (
	DecodeActionNone   DecodeAction = 0x00
	DecodeActionBeep   DecodeAction = 0x01
	DecodeActionFlash  DecodeAction = 0x02
	DecodeActionRumble DecodeAction = 0x04
)

// String lists the set bits, e.g. "beep|flash".
func (a DecodeAction) String() string {
	if a == DecodeActionNone {
		return "none"
	}
	var parts []string
	if a&DecodeActionBeep != 0 {
		parts = append(parts, "beep")
	}
	if a&DecodeActionFlash != 0 {
		parts = append(parts, "flash")
	}
	if a&DecodeActionRumble != 0 {
		parts = append(parts, "rumble")
	}
	return strings.Join(parts, "|")
}

// StandConfig selects how a scanner behaves when placed in its stand.
type StandConfig uint32

const (
	StandMobileMode StandConfig = 0
	StandStandMode  StandConfig = 1
	StandDetectMode StandConfig = 2
	StandAutoMode   StandConfig = 3
)

// String returns the stand mode name.
func (s StandConfig) String() string {
	switch s {
	case StandMobileMode:
		return "mobile"
	case StandStandMode:
		return "stand"
	case StandDetectMode:
		return "detect"
	case StandAutoMode:
		return "auto"
	default:
		return fmt.Sprintf("stand(%d)", uint32(s))
	}
}

// DataConfirmationMode selects who acknowledges decoded data.
type DataConfirmationMode uint8

const (
	ConfirmationModeOff     DataConfirmationMode = 0
	ConfirmationModeDevice  DataConfirmationMode = 1
	ConfirmationModeCapture DataConfirmationMode = 2
	ConfirmationModeApp     DataConfirmationMode = 3
)

// String returns the mode name.
func (m DataConfirmationMode) String() string {
	switch m {
	case ConfirmationModeOff:
		return "off"
	case ConfirmationModeDevice:
		return "device"
	case ConfirmationModeCapture:
		return "capture"
	case ConfirmationModeApp:
		return "app"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Confirmation LED, beep and rumble values for PropDeviceDataConfirmation.
const (
	ConfirmLEDNone  uint8 = 0
	ConfirmLEDGreen uint8 = 1
	ConfirmLEDRed   uint8 = 2

	ConfirmBeepNone uint8 = 0
	ConfirmBeepGood uint8 = 1
	ConfirmBeepBad  uint8 = 2

	ConfirmRumbleNone uint8 = 0
	ConfirmRumbleGood uint8 = 1
	ConfirmRumbleBad  uint8 = 2
)

// Confirmation is the feedback a scanner plays when the application
// acknowledges decoded data.
type Confirmation struct {
	LED    uint8
	Beep   uint8
	Rumble uint8
}

// Pack encodes the confirmation into a PropDeviceDataConfirmation ulong.
func (c Confirmation) Pack() uint32 {
	return uint32(c.LED)<<16 | uint32(c.Beep)<<8 | uint32(c.Rumble)
}

// UnpackConfirmation decodes a PropDeviceDataConfirmation ulong.
func UnpackConfirmation(v uint32) Confirmation {
	return Confirmation{
		LED:    uint8(v >> 16),
		Beep:   uint8(v >> 8),
		Rumble: uint8(v),
	}
}

// GoodConfirmation is the usual acknowledgment of a good read.
var GoodConfirmation = Confirmation{LED: ConfirmLEDGreen, Beep: ConfirmBeepGood, Rumble: ConfirmRumbleGood}

// Battery levels are packed into a ulong: current level in bits 8-15,
// minimum in bits 16-23, maximum in bits 24-31.

// PackBattery builds a PropDeviceBatteryLevel value.
func PackBattery(current, lo, hi uint8) uint32 {
	return uint32(hi)<<24 | uint32(lo)<<16 | uint32(current)<<8
}

// BatteryPercent converts a packed battery level to a percentage.
func BatteryPercent(v uint32) int {
	current := int(v>>8) & 0xff
	lo := int(v>>16) & 0xff
	hi := int(v>>24) & 0xff
	if hi <= lo {
		lo, hi = 0, 100
	}
	if current <= lo {
		return 0
	}
	if current >= hi {
		return 100
	}
	return (current - lo) * 100 / (hi - lo)
}

// Timers holds the scanner power and trigger timers, in the units the
// scanner uses (trigger lock in 250ms ticks, power-off timers in minutes).
type Timers struct {
	TriggerLock          uint16
	PowerOffDisconnected uint16
	PowerOffConnected    uint16
}

// Timer mask bits; a set bit means the matching field is applied on write.
const (
	TimerMaskTriggerLock          uint16 = 0x01
	TimerMaskPowerOffDisconnected uint16 = 0x02
	TimerMaskPowerOffConnected    uint16 = 0x04
	TimerMaskAll                  uint16 = 0x07
)

// TimersSize is the encoded length of a Timers array.
const TimersSize = 8

// EncodeTimers encodes timers into the PropDeviceTimers array format:
// a big-endian mask followed by the three timers.
func EncodeTimers(mask uint16, t Timers) []byte {
	buf := make([]byte, TimersSize)
	binary.BigEndian.PutUint16(buf[0:], mask)
	binary.BigEndian.PutUint16(buf[2:], t.TriggerLock)
	binary.BigEndian.PutUint16(buf[4:], t.PowerOffDisconnected)
	binary.BigEndian.PutUint16(buf[6:], t.PowerOffConnected)
	return buf
}

// DecodeTimers decodes a PropDeviceTimers array.
func DecodeTimers(data []byte) (uint16, Timers, error) {
	if len(data) != TimersSize {
		return 0, Timers{}, fmt.Errorf("timers: want %d bytes, got %d", TimersSize, len(data))
	}
	return binary.BigEndian.Uint16(data[0:]), Timers{
		TriggerLock:          binary.BigEndian.Uint16(data[2:]),
		PowerOffDisconnected: binary.BigEndian.Uint16(data[4:]),
		PowerOffConnected:    binary.BigEndian.Uint16(data[6:]),
	}, nil
}

// FormatAddress renders a Bluetooth address as colon-separated hex.
func FormatAddress(addr []byte) string {
	parts := make([]string, len(addr))
	for i, b := range addr {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

// Scanner device types.
const (
	DeviceTypeUnknown   uint32 = 0
	DeviceTypeScanner7  uint32 = 0x00010007
	DeviceTypeScanner7X uint32 = 0x00010008
	DeviceTypeScanner8  uint32 = 0x00010009
	DeviceTypeScannerD7 uint32 = 0x0001000A
	DeviceTypeNFC       uint32 = 0x00020001
)
