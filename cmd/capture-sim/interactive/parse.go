package interactive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// resolveDevice finds a scanner by 1-based index, identity, or a
// case-insensitive name fragment.
func resolveDevice(devices []sim.DeviceInfo, ref string) (sim.DeviceInfo, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(devices) {
			return sim.DeviceInfo{}, fmt.Errorf("no scanner #%d", n)
		}
		return devices[n-1], nil
	}
	for _, d := range devices {
		if d.Identity == ref {
			return d, nil
		}
	}
	lower := strings.ToLower(ref)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			return d, nil
		}
	}
	return sim.DeviceInfo{}, fmt.Errorf("scanner not found: %s", ref)
}

var deviceTypes = map[string]uint32{
	"7":   wire.DeviceTypeScanner7,
	"7x":  wire.DeviceTypeScanner7X,
	"8":   wire.DeviceTypeScanner8,
	"d7":  wire.DeviceTypeScannerD7,
	"nfc": wire.DeviceTypeNFC,
}

// parseDeviceType accepts a model short name or a hex type code.
func parseDeviceType(s string) (uint32, error) {
	if t, ok := deviceTypes[strings.ToLower(s)]; ok {
		return t, nil
	}
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err == nil {
			return uint32(v), nil
		}
	}
	return 0, fmt.Errorf("unknown device type %q", s)
}

// parseFault reads the property and failing result of an injected fault.
func parseFault(propName, resultName string) (wire.PropertyID, wire.Result, error) {
	prop, ok := wire.LookupProperty(propName)
	if !ok {
		return 0, 0, fmt.Errorf("unknown property: %s", propName)
	}
	result, ok := wire.LookupResult(resultName)
	if !ok {
		return 0, 0, fmt.Errorf("unknown result: %s", resultName)
	}
	if result.IsSuccess() {
		return 0, 0, fmt.Errorf("%s is not a failure", result)
	}
	return prop, result, nil
}
