package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for info.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyTXTVersion: strconv.Itoa(TXTVersion),
		TXTKeyVersion:    info.Version,
		TXTKeyName:       info.Name,
	}
	if info.WebSocket {
		txt[TXTKeyWebSocket] = "1"
	}
	return txt
}

// DecodeTXT parses TXT records into the descriptive fields of a Service.
func DecodeTXT(txt TXTRecordMap) (*Service, error) {
	if v, ok := txt[TXTKeyTXTVersion]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: txtvers %q", ErrInvalidTXTRecord, v)
		}
	}

	svc := &Service{}
	var ok bool
	if svc.Version, ok = txt[TXTKeyVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	svc.Name = txt[TXTKeyName]

	switch ws := txt[TXTKeyWebSocket]; ws {
	case "", "0":
	case "1":
		svc.WebSocket = true
	default:
		return nil, fmt.Errorf("%w: ws %q", ErrInvalidTXTRecord, ws)
	}
	return svc, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// InstanceName derives a DNS-SD instance name from a friendly name.
func InstanceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > MaxInstanceNameLen {
		name = strings.ToValidUTF8(name[:MaxInstanceNameLen], "")
	}
	return name, nil
}
