package wire

// Handle is a device-layer handle for an open scanner session.
// HandleNone addresses the capture session itself.
type Handle uint64

// HandleNone is the zero handle.
const HandleNone Handle = 0

// Token is an opaque correlation token linking a request to its completion.
// TokenNone is never assigned to a request.
type Token uint32

// TokenNone is the zero token.
const TokenNone Token = 0

// MessageKind classifies a device-layer message.
type MessageKind uint8

const (
	MessageDeviceArrival MessageKind = 1
	MessageDeviceRemoval MessageKind = 2
	MessageGetComplete   MessageKind = 3
	MessageSetComplete   MessageKind = 4
	MessageEvent         MessageKind = 5
	MessageTerminate     MessageKind = 6
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case MessageDeviceArrival:
		return "DeviceArrival"
	case MessageDeviceRemoval:
		return "DeviceRemoval"
	case MessageGetComplete:
		return "GetComplete"
	case MessageSetComplete:
		return "SetComplete"
	case MessageEvent:
		return "Event"
	case MessageTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// Message is one asynchronous notification from the device layer.
//
// CBOR encoding:
//
//	{
//	  1: kind,        // uint8
//	  2: handle,      // uint64, removal/completion/event
//	  3: identity,    // string, arrival
//	  4: name,        // string, arrival
//	  5: deviceType,  // uint32, arrival
//	  6: result,      // int32
//	  7: token,       // uint32, completions
//	  8: property,    // completions
//	  9: event        // events
//	}
type Message struct {
	Kind       MessageKind `cbor:"1,keyasint"`
	Handle     Handle      `cbor:"2,keyasint,omitempty"`
	Identity   string      `cbor:"3,keyasint,omitempty"`
	Name       string      `cbor:"4,keyasint,omitempty"`
	DeviceType uint32      `cbor:"5,keyasint,omitempty"`
	Result     Result      `cbor:"6,keyasint,omitempty"`
	Token      Token       `cbor:"7,keyasint,omitempty"`
	Property   *Property   `cbor:"8,keyasint,omitempty"`
	Event      *Event      `cbor:"9,keyasint,omitempty"`
}

// EventKind classifies an Event message.
type EventKind uint8

const (
	EventDecodedData EventKind = 1
	EventError       EventKind = 2
	EventPower       EventKind = 3
	EventButtons     EventKind = 4
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventDecodedData:
		return "DecodedData"
	case EventError:
		return "Error"
	case EventPower:
		return "Power"
	case EventButtons:
		return "Buttons"
	default:
		return "Unknown"
	}
}

// Event is the payload of a MessageEvent.
type Event struct {
	Kind    EventKind    `cbor:"1,keyasint"`
	Data    *DecodedData `cbor:"2,keyasint,omitempty"`
	Code    Result       `cbor:"3,keyasint,omitempty"`
	Message string       `cbor:"4,keyasint,omitempty"`
	Value   uint32       `cbor:"5,keyasint,omitempty"`
}

// DecodedData is one scan.
type DecodedData struct {
	SymbologyID   SymbologyID `cbor:"1,keyasint"`
	SymbologyName string      `cbor:"2,keyasint,omitempty"`
	Data          []byte      `cbor:"3,keyasint"`
}

// AppInfo identifies the application during the session handshake.
type AppInfo struct {
	AppID       string `cbor:"1,keyasint"`
	DeveloperID string `cbor:"2,keyasint,omitempty"`
	AppKey      string `cbor:"3,keyasint,omitempty"`
}
