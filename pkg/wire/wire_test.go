package wire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultIsSuccess(t *testing.T) {
	assert.True(t, ResultSuccess.IsSuccess())
	assert.True(t, ResultWaitTimeout.IsSuccess())
	assert.False(t, ResultFailure.IsSuccess())
	assert.False(t, ResultNotSupported.IsSuccess())
}

func TestResultRetrySuppressed(t *testing.T) {
	assert.True(t, ResultNotSupported.IsRetrySuppressed())
	assert.True(t, ResultInvalidHandle.IsRetrySuppressed())
	assert.False(t, ResultDeviceBusy.IsRetrySuppressed())
	assert.False(t, ResultSuccess.IsRetrySuppressed())
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResultOf(nil))
	assert.Equal(t, ResultFailure, ResultOf(errors.New("boom")))
	assert.Equal(t, ResultTimeout, ResultOf(ResultTimeout.Err()))

	wrapped := fmt.Errorf("get battery: %w", ResultInvalidHandle.Err())
	assert.Equal(t, ResultInvalidHandle, ResultOf(wrapped))
	assert.True(t, IsRetrySuppressed(wrapped))
	assert.False(t, IsRetrySuppressed(nil))
}

func TestResultErrNilOnSuccess(t *testing.T) {
	assert.NoError(t, ResultSuccess.Err())
	assert.NoError(t, ResultWaitTimeout.Err())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "NOT_SUPPORTED", ResultNotSupported.String())
	assert.Equal(t, "RESULT(-99)", Result(-99).String())
	assert.Equal(t, "DEVICE_BUSY: scanner asleep", Errorf(ResultDeviceBusy, "scanner %s", "asleep").Error())
}

func TestPropertyAccessors(t *testing.T) {
	p := StringProperty(PropDeviceFriendlyName, "Dock 1")
	s, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, "Dock 1", s)

	_, err = p.AsUlong()
	assert.ErrorIs(t, err, ErrPropertyType)

	var nilProp *Property
	_, err = nilProp.AsByte()
	assert.ErrorIs(t, err, ErrPropertyType)
}

func TestArrayPropertyCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	p := ArrayProperty(PropDeviceSpecific, src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Array)
}

func TestSessionProperty(t *testing.T) {
	assert.True(t, PropCaptureAbort.IsSessionProperty())
	assert.True(t, PropCaptureDataConfirmationMode.IsSessionProperty())
	assert.False(t, PropDeviceBatteryLevel.IsSessionProperty())
}

func TestBatteryPercent(t *testing.T) {
	assert.Equal(t, 50, BatteryPercent(PackBattery(50, 0, 100)))
	assert.Equal(t, 100, BatteryPercent(PackBattery(120, 0, 100)))
	assert.Equal(t, 0, BatteryPercent(PackBattery(5, 10, 100)))
	assert.Equal(t, 25, BatteryPercent(PackBattery(25, 0, 0)))
}

func TestTimersEncoding(t *testing.T) {
	in := Timers{TriggerLock: 4, PowerOffDisconnected: 15, PowerOffConnected: 120}
	data := EncodeTimers(TimerMaskAll, in)
	require.Len(t, data, TimersSize)

	mask, out, err := DecodeTimers(data)
	require.NoError(t, err)
	assert.Equal(t, TimerMaskAll, mask)
	assert.Equal(t, in, out)

	_, _, err = DecodeTimers([]byte{1})
	assert.Error(t, err)
}

func TestConfirmationPacking(t *testing.T) {
	c := Confirmation{LED: ConfirmLEDRed, Beep: ConfirmBeepBad, Rumble: ConfirmRumbleNone}
	assert.Equal(t, c, UnpackConfirmation(c.Pack()))
}

func TestDecodeActionString(t *testing.T) {
	assert.Equal(t, "none", DecodeActionNone.String())
	assert.Equal(t, "beep|rumble", (DecodeActionBeep | DecodeActionRumble).String())
}

func TestSymbologyNames(t *testing.T) {
	assert.Equal(t, "Code 128", SymbologyCode128.String())
	assert.Equal(t, "Han Xin", SymbologyHanXin.String())
	assert.False(t, SymbologyCount.IsValid())
	assert.Equal(t, "Symbology(999)", SymbologyID(999).String())
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "00:11:AB:CD:EF:01", FormatAddress([]byte{0x00, 0x11, 0xAB, 0xCD, 0xEF, 0x01}))
}

func TestEnvelopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		wantErr bool
	}{
		{"open", Envelope{Seq: 1, Op: OpOpen}, false},
		{"request without seq", Envelope{Op: OpOpen}, true},
		{"get without property", Envelope{Seq: 2, Op: OpGetProperty}, true},
		{"get", Envelope{Seq: 2, Op: OpGetProperty, Property: NoneProperty(PropDeviceType)}, false},
		{"reply", Envelope{Seq: 3, Op: OpReply}, false},
		{"message without payload", Envelope{Op: OpMessage}, true},
		{"unknown op", Envelope{Seq: 1, Op: 99}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.env.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvelopeCodec(t *testing.T) {
	env := &Envelope{
		Op: OpMessage,
		Message: &Message{
			Kind:   MessageEvent,
			Handle: 7,
			Event: &Event{
				Kind: EventDecodedData,
				Data: &DecodedData{SymbologyID: SymbologyEan13, Data: []byte("4006381333931")},
			},
		},
	}
	data, err := EncodeEnvelope(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	require.NotNil(t, got.Message)
	require.NotNil(t, got.Message.Event)
	assert.Equal(t, Handle(7), got.Message.Handle)
	assert.Equal(t, []byte("4006381333931"), got.Message.Event.Data.Data)
	assert.True(t, Equal(env, got))
}

func TestEnvelopeErr(t *testing.T) {
	assert.NoError(t, (&Envelope{Seq: 1, Op: OpReply}).Err())

	err := (&Envelope{Seq: 1, Op: OpReply, Result: ResultNotOpen, Text: "closed"}).Err()
	require.Error(t, err)
	assert.Equal(t, ResultNotOpen, ResultOf(err))
}

func TestEncodeInvalidEnvelope(t *testing.T) {
	_, err := EncodeEnvelope(&Envelope{Op: OpGetProperty})
	assert.Error(t, err)
}

func TestLookups(t *testing.T) {
	sym, ok := LookupSymbology("qr-code")
	assert.True(t, ok)
	assert.Equal(t, SymbologyQRCode, sym)
	sym, ok = LookupSymbology("15")
	assert.True(t, ok)
	assert.Equal(t, SymbologyCode128, sym)
	_, ok = LookupSymbology("500")
	assert.False(t, ok)

	prop, ok := LookupProperty("battery_level")
	assert.True(t, ok)
	assert.Equal(t, PropDeviceBatteryLevel, prop)
	prop, ok = LookupProperty("0x0003")
	assert.True(t, ok)
	assert.Equal(t, PropCaptureDataConfirmationMode, prop)
	prop, ok = LookupProperty("DeviceFriendlyName")
	assert.True(t, ok)
	assert.Equal(t, PropDeviceFriendlyName, prop)
	_, ok = LookupProperty("colour")
	assert.False(t, ok)

	res, ok := LookupResult("device_busy")
	assert.True(t, ok)
	assert.Equal(t, ResultDeviceBusy, res)
	res, ok = LookupResult("-47")
	assert.True(t, ok)
	assert.Equal(t, ResultTransport, res)
	_, ok = LookupResult("oops")
	assert.False(t, ok)
}
