package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTRoundTrip(t *testing.T) {
	info := &Info{Name: "Warehouse Dock", Version: "1.5.0.12", WebSocket: true}
	strs := TXTRecordsToStrings(EncodeTXT(info))
	assert.Equal(t, []string{"name=Warehouse Dock", "txtvers=1", "ver=1.5.0.12", "ws=1"}, strs)

	svc, err := DecodeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, "Warehouse Dock", svc.Name)
	assert.Equal(t, "1.5.0.12", svc.Version)
	assert.True(t, svc.WebSocket)
}

func TestDecodeTXTErrors(t *testing.T) {
	_, err := DecodeTXT(TXTRecordMap{TXTKeyName: "x"})
	assert.ErrorIs(t, err, ErrMissingRequired)

	_, err = DecodeTXT(TXTRecordMap{TXTKeyVersion: "1", TXTKeyWebSocket: "yes"})
	assert.ErrorIs(t, err, ErrInvalidTXTRecord)

	_, err = DecodeTXT(TXTRecordMap{TXTKeyVersion: "1", TXTKeyTXTVersion: "zero"})
	assert.ErrorIs(t, err, ErrInvalidTXTRecord)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestInstanceName(t *testing.T) {
	_, err := InstanceName("  ")
	assert.ErrorIs(t, err, ErrInvalidName)

	long := ""
	for range 70 {
		long += "s"
	}
	name, err := InstanceName(long)
	require.NoError(t, err)
	assert.Len(t, name, MaxInstanceNameLen)
}

func TestServiceAddress(t *testing.T) {
	svc := &Service{Host: "scanner.local.", Port: 7420}
	assert.Equal(t, "scanner.local.:7420", svc.Address())

	svc.Addresses = []string{"fe80::1", "10.0.0.2"}
	assert.Equal(t, "[fe80::1]:7420", svc.Address())

	svc.WebSocket = true
	assert.Equal(t, "ws://[fe80::1]:7420/", svc.Address())

	assert.Equal(t, "", (&Service{}).Address())
}

func entry(instance string, ips ...string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{}
	e.Instance = instance
	e.HostName = "host.local."
	e.Port = 7420
	e.Text = []string{"ver=1.5.0.12", "txtvers=1"}
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed.To4() != nil {
			e.AddrIPv4 = append(e.AddrIPv4, parsed)
		} else {
			e.AddrIPv6 = append(e.AddrIPv6, parsed)
		}
	}
	return e
}

func TestAggregator(t *testing.T) {
	agg := newAggregator()

	svc, isNew := agg.add(entry("Dock", "10.0.0.2"))
	require.NotNil(t, svc)
	assert.True(t, isNew)
	assert.Equal(t, "Dock", svc.Name)
	assert.Equal(t, uint16(7420), svc.Port)

	svc, isNew = agg.add(entry("Dock", "fe80::2", "10.0.0.2"))
	assert.False(t, isNew)
	assert.Equal(t, []string{"10.0.0.2", "fe80::2"}, svc.Addresses)

	agg.remove(entry("Dock", "10.0.0.2"))
	assert.Equal(t, []string{"fe80::2"}, agg.services["Dock"].Addresses)
	agg.remove(entry("Dock", "fe80::2"))
	assert.Empty(t, agg.services)

	bad := entry("Broken")
	bad.Text = []string{"name=no version"}
	svc, _ = agg.add(bad)
	assert.Nil(t, svc)
}

func TestAdvertiserStopWithoutAdvertise(t *testing.T) {
	a := NewAdvertiser(DefaultAdvertiserConfig())
	assert.Nil(t, a.Advertised())
	a.Stop()

	assert.ErrorIs(t, a.Advertise(Info{}), ErrInvalidName)
}
