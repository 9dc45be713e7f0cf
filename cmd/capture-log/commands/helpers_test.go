package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// createTestLogFile writes events to a temporary log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

var baseTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// sampleEvents covers one client session talking to a remote service.
func sampleEvents() []log.Event {
	get := wire.OpGetProperty
	reply := wire.OpReply
	kind := wire.MessageGetComplete
	busy := wire.ResultDeviceBusy
	ok := wire.ResultSuccess
	return []log.Event{
		{
			Timestamp: baseTime, SessionID: "sess-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerSession, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntitySession, OldState: "CLOSED", NewState: "OPEN"},
		},
		{
			Timestamp: baseTime.Add(time.Second), SessionID: "sess-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerWire, Category: log.CategoryMessage, Handle: 3,
			Message: &log.MessageEvent{Type: log.MessageTypeRequest, Op: &get, Seq: 7, Token: 12, Property: wire.PropDeviceBatteryLevel},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second), SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryMessage, Handle: 3,
			Message: &log.MessageEvent{Type: log.MessageTypeReply, Op: &reply, Seq: 7, Result: &busy},
		},
		{
			Timestamp: baseTime.Add(3 * time.Second), SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerSession, Category: log.CategoryMessage, Handle: 3,
			Message: &log.MessageEvent{Type: log.MessageTypeMessage, Kind: &kind, Token: 12, Property: wire.PropDeviceBatteryLevel, Result: &ok},
		},
		{
			Timestamp: baseTime.Add(4 * time.Second), SessionID: "conn-bbbb-2222", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryMessage, RemoteAddr: "10.0.0.5:50123",
			Frame: &log.FrameEvent{Size: 12, Data: []byte{0xa1, 0x01, 0x02}},
		},
		{
			Timestamp: baseTime.Add(5 * time.Second), SessionID: "conn-bbbb-2222", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerTransport, Message: "connection reset", Context: "receive"},
		},
	}
}
