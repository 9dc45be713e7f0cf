package interactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

func TestResolveDevice(t *testing.T) {
	devices := []sim.DeviceInfo{
		{Identity: "a-1", Name: "Socket S700"},
		{Identity: "b-2", Name: "Socket D750"},
	}

	d, err := resolveDevice(devices, "2")
	require.NoError(t, err)
	assert.Equal(t, "b-2", d.Identity)

	d, err = resolveDevice(devices, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Socket S700", d.Name)

	d, err = resolveDevice(devices, "d750")
	require.NoError(t, err)
	assert.Equal(t, "b-2", d.Identity)

	_, err = resolveDevice(devices, "3")
	assert.Error(t, err)
	_, err = resolveDevice(devices, "zebra")
	assert.Error(t, err)
}

func TestParseDeviceType(t *testing.T) {
	got, err := parseDeviceType("NFC")
	require.NoError(t, err)
	assert.Equal(t, wire.DeviceTypeNFC, got)

	got, err = parseDeviceType("0x0001000a")
	require.NoError(t, err)
	assert.Equal(t, wire.DeviceTypeScannerD7, got)

	_, err = parseDeviceType("s700")
	assert.Error(t, err)
}

func TestParseFault(t *testing.T) {
	prop, result, err := parseFault("battery_level", "device_busy")
	require.NoError(t, err)
	assert.Equal(t, wire.PropDeviceBatteryLevel, prop)
	assert.Equal(t, wire.ResultDeviceBusy, result)

	_, _, err = parseFault("battery_level", "success")
	assert.Error(t, err)
	_, _, err = parseFault("volume", "failure")
	assert.Error(t, err)
	_, _, err = parseFault("postamble", "nope")
	assert.Error(t, err)
}
