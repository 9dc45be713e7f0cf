package interactive

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

var errUsage = errors.New("missing argument")

// resolveDevice finds a scanner by 1-based list index, identity, or a
// case-insensitive name fragment. Placeholders never match.
func resolveDevice(devices []*model.Device, ref string) (*model.Device, error) {
	var scanners []*model.Device
	for _, d := range devices {
		if !d.IsPlaceholder() {
			scanners = append(scanners, d)
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(scanners) {
			return nil, fmt.Errorf("no scanner #%d", n)
		}
		return scanners[n-1], nil
	}
	for _, d := range scanners {
		if d.Identity() == ref {
			return d, nil
		}
	}
	ref = strings.ToLower(ref)
	for _, d := range scanners {
		if strings.Contains(strings.ToLower(d.Name()), ref) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("scanner not found: %s", ref)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes", "enable", "enabled":
		return true, nil
	case "off", "false", "0", "no", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func parseStand(s string) (wire.StandConfig, error) {
	for _, mode := range []wire.StandConfig{wire.StandMobileMode, wire.StandStandMode, wire.StandDetectMode, wire.StandAutoMode} {
		if strings.EqualFold(s, mode.String()) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown stand mode %q", s)
}

// parseDecodeAction combines action names, e.g. "beep flash" or
// "beep|rumble".
func parseDecodeAction(args []string) (wire.DecodeAction, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	var action wire.DecodeAction
	for _, arg := range args {
		for _, name := range strings.Split(arg, "|") {
			switch strings.ToLower(name) {
			case "none":
			case "beep":
				action |= wire.DecodeActionBeep
			case "flash":
				action |= wire.DecodeActionFlash
			case "rumble":
				action |= wire.DecodeActionRumble
			default:
				return 0, fmt.Errorf("unknown decode action %q", name)
			}
		}
	}
	return action, nil
}

func parseSymbology(s string) (wire.SymbologyID, error) {
	id, ok := wire.LookupSymbology(s)
	if !ok || id == wire.SymbologyNotSpecified {
		return 0, fmt.Errorf("unknown symbology %q", s)
	}
	return id, nil
}

func parseConfirmation(s string) (wire.Confirmation, error) {
	switch strings.ToLower(s) {
	case "", "good":
		return wire.GoodConfirmation, nil
	case "bad":
		return wire.Confirmation{LED: wire.ConfirmLEDRed, Beep: wire.ConfirmBeepBad, Rumble: wire.ConfirmRumbleBad}, nil
	}
	return wire.Confirmation{}, fmt.Errorf("expected good or bad, got %q", s)
}

// parseTimers reads up to three timer values in TriggerLock,
// PowerOffDisconnected, PowerOffConnected order. A "-" leaves that timer
// out of the mask.
func parseTimers(args []string) (uint16, wire.Timers, error) {
	if len(args) == 0 || len(args) > 3 {
		return 0, wire.Timers{}, errUsage
	}
	bits := []uint16{wire.TimerMaskTriggerLock, wire.TimerMaskPowerOffDisconnected, wire.TimerMaskPowerOffConnected}
	var mask uint16
	var values [3]uint16
	for i, arg := range args {
		if arg == "-" {
			continue
		}
		v, err := strconv.ParseUint(arg, 10, 16)
		if err != nil {
			return 0, wire.Timers{}, fmt.Errorf("timer %d: %w", i+1, err)
		}
		values[i] = uint16(v)
		mask |= bits[i]
	}
	return mask, wire.Timers{
		TriggerLock:          values[0],
		PowerOffDisconnected: values[1],
		PowerOffConnected:    values[2],
	}, nil
}

func parseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(s, ":", ""), "0x"))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errUsage
	}
	return b, nil
}
