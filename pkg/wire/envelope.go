package wire

import "fmt"

// Op is the operation carried by a network Envelope.
type Op uint8

const (
	// Client to service.
	OpOpen        Op = 1
	OpClose       Op = 2
	OpGetProperty Op = 3
	OpSetProperty Op = 4
	OpOpenDevice  Op = 5
	OpCloseDevice Op = 6

	// Service to client.
	OpReply   Op = 16
	OpMessage Op = 17
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpOpen:
		return "Open"
	case OpClose:
		return "Close"
	case OpGetProperty:
		return "GetProperty"
	case OpSetProperty:
		return "SetProperty"
	case OpOpenDevice:
		return "OpenDevice"
	case OpCloseDevice:
		return "CloseDevice"
	case OpReply:
		return "Reply"
	case OpMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// IsRequest returns true for client-to-service operations.
func (o Op) IsRequest() bool {
	return o >= OpOpen && o <= OpCloseDevice
}

// Envelope is the unit exchanged with a remote capture service.
// Requests carry a non-zero Seq that the matching OpReply echoes;
// OpMessage envelopes carry an asynchronous Message and Seq 0.
type Envelope struct {
	Seq      uint32    `cbor:"1,keyasint,omitempty"`
	Op       Op        `cbor:"2,keyasint"`
	Handle   Handle    `cbor:"3,keyasint,omitempty"`
	Token    Token     `cbor:"4,keyasint,omitempty"`
	Identity string    `cbor:"5,keyasint,omitempty"`
	Property *Property `cbor:"6,keyasint,omitempty"`
	App      *AppInfo  `cbor:"7,keyasint,omitempty"`
	Result   Result    `cbor:"8,keyasint,omitempty"`
	Text     string    `cbor:"9,keyasint,omitempty"`
	Message  *Message  `cbor:"10,keyasint,omitempty"`
}

// Validate checks the envelope is well formed.
func (e *Envelope) Validate() error {
	switch {
	case e.Op.IsRequest():
		if e.Seq == 0 {
			return fmt.Errorf("%s request without sequence number", e.Op)
		}
		if (e.Op == OpGetProperty || e.Op == OpSetProperty) && e.Property == nil {
			return fmt.Errorf("%s request without property", e.Op)
		}
	case e.Op == OpReply:
		if e.Seq == 0 {
			return fmt.Errorf("reply without sequence number")
		}
	case e.Op == OpMessage:
		if e.Message == nil {
			return fmt.Errorf("message envelope without message")
		}
	default:
		return fmt.Errorf("invalid operation: %d", e.Op)
	}
	return nil
}

// Err returns the reply result as an error.
func (e *Envelope) Err() error {
	if e.Result.IsSuccess() {
		return nil
	}
	return &ResultError{Result: e.Result, Message: e.Text}
}
