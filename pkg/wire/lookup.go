package wire

import (
	"strconv"
	"strings"
)

// Lookups accept numbers or display names. Names compare case-insensitively
// with spaces, dashes and underscores ignored.

func foldName(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}

// LookupSymbology finds a symbology by number or name ("code128", "QR Code").
func LookupSymbology(s string) (SymbologyID, bool) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return SymbologyID(n), SymbologyID(n).IsValid()
	}
	want := foldName(s)
	for id := SymbologyID(1); id < SymbologyCount; id++ {
		if foldName(symbologyNames[id]) == want {
			return id, true
		}
	}
	return 0, false
}

// LookupProperty finds a property by number ("0x0105", "261") or name.
// The Device or Capture prefix may be left off, so "battery_level" finds
// PropDeviceBatteryLevel.
func LookupProperty(s string) (PropertyID, bool) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		_, known := propertyNames[PropertyID(n)]
		return PropertyID(n), known
	}
	want := foldName(s)
	for id, name := range propertyNames {
		name = foldName(name)
		if name == want || name == "device"+want || name == "capture"+want {
			return id, true
		}
	}
	return 0, false
}

var knownResults = []Result{
	ResultSuccess, ResultWaitTimeout, ResultAlreadyDone, ResultFailure,
	ResultNotReady, ResultDeviceBusy, ResultTimeout, ResultNotOpen,
	ResultAlreadyOpen, ResultInvalidParameter, ResultNotSupported,
	ResultInvalidHandle, ResultTransport,
}

// LookupResult finds a result by signed number or name ("device_busy").
func LookupResult(s string) (Result, bool) {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Result(n), true
	}
	want := foldName(s)
	for _, r := range knownResults {
		if foldName(r.String()) == want {
			return r, true
		}
	}
	return 0, false
}
