package session

import (
	"context"
	"time"

	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// DeviceLayer is the capture service a Session talks to. Errors carry a
// device-layer code as *wire.ResultError where one exists.
//
// GetProperty and SetProperty return once the request is accepted; the
// outcome arrives later as a GetComplete or SetComplete message carrying the
// same token.
type DeviceLayer interface {
	Open(ctx context.Context, app wire.AppInfo) error
	Close() error

	// WaitForMessage returns the next message, or (nil, nil) when none
	// arrived within timeout. An error means the message source is broken.
	WaitForMessage(timeout time.Duration) (*wire.Message, error)

	GetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error
	SetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error

	OpenDevice(identity string) (wire.Handle, error)
	CloseDevice(handle wire.Handle) error
}

var _ queue.Sender = DeviceLayer(nil)

// Notifier receives session notifications. Calls are made synchronously from
// whichever goroutine observed the condition: the handshake goroutine for
// OnSessionInitializeComplete, the ReceiveOnce caller for everything else.
// Implementations that drive a UI must marshal onto their own thread.
type Notifier interface {
	// OnDeviceArrival reports a scanner connection. d is nil when the
	// device layer failed to open the scanner.
	OnDeviceArrival(result wire.Result, d *model.Device)
	OnDeviceRemoval(d *model.Device)
	OnDecodedData(d *model.Device, data wire.DecodedData)
	OnError(result wire.Result, message string)
	OnSessionInitializeComplete(result wire.Result)
	OnSessionTerminated()
	OnErrorRetrievingMessage(result wire.Result)
}

// NopNotifier ignores every notification. Embed it to implement only the
// callbacks you need.
type NopNotifier struct{}

func (NopNotifier) OnDeviceArrival(wire.Result, *model.Device) {}
func (NopNotifier) OnDeviceRemoval(*model.Device) {}
func (NopNotifier) OnDecodedData(*model.Device, wire.DecodedData) {}
func (NopNotifier) OnError(wire.Result, string) {}
func (NopNotifier) OnSessionInitializeComplete(wire.Result) {}
func (NopNotifier) OnSessionTerminated() {}
func (NopNotifier) OnErrorRetrievingMessage(wire.Result) {}

var _ Notifier = NopNotifier{}
