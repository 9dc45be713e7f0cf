package queue

import (
	"sync/atomic"

	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Op is the kind of request a Command makes.
type Op uint8

const (
	OpGet Op = 1
	OpSet Op = 2
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a Command.
type Status uint8

const (
	StatusReady     Status = 0
	StatusPending   Status = 1
	StatusCompleted Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Callback receives a finished Command. err is nil on success; otherwise it
// is a *wire.ResultError carrying the final result code.
type Callback func(cmd *Command, err error)

// tokenSeq is shared by every queue so tokens are never reused across
// Commands in the same process.
var tokenSeq atomic.Uint32

func nextToken() wire.Token {
	for {
		if t := wire.Token(tokenSeq.Add(1)); t != wire.TokenNone {
			return t
		}
	}
}

// Command is one outbound get or set request.
// Mutable state is owned by the Queue the Command is enqueued in.
type Command struct {
	op       Op
	property *wire.Property
	handle   wire.Handle
	callback Callback
	token    wire.Token
	abort    bool

	confirmation bool
	status       Status
	retries      int
	result       wire.Result
	reply        *wire.Property
}

// NewGet creates a get Command. handle is wire.HandleNone for session properties.
func NewGet(handle wire.Handle, prop *wire.Property, cb Callback) *Command {
	return &Command{op: OpGet, handle: handle, property: prop, callback: cb, token: nextToken()}
}

// NewSet creates a set Command. handle is wire.HandleNone for session properties.
func NewSet(handle wire.Handle, prop *wire.Property, cb Callback) *Command {
	return &Command{op: OpSet, handle: handle, property: prop, callback: cb, token: nextToken()}
}

// NewAbort creates the session abort Command.
// Unlike other Commands, an abort that fails to dispatch still reports to cb.
func NewAbort(cb Callback) *Command {
	cmd := NewSet(wire.HandleNone, wire.NoneProperty(wire.PropCaptureAbort), cb)
	cmd.abort = true
	return cmd
}

// Op returns the request kind.
func (c *Command) Op() Op { return c.op }

// Property returns the outbound property.
func (c *Command) Property() *wire.Property { return c.property }

// Handle returns the owning device handle.
func (c *Command) Handle() wire.Handle { return c.handle }

// Token returns the correlation token assigned at creation.
func (c *Command) Token() wire.Token { return c.token }

// IsAbort returns true for the session abort Command.
func (c *Command) IsAbort() bool { return c.abort }

// Result returns the final result code. Valid inside the Callback.
func (c *Command) Result() wire.Result { return c.result }

// Reply returns the property returned by the device layer. Valid inside the
// Callback; nil for failures and for sets that echo nothing.
func (c *Command) Reply() *wire.Property { return c.reply }

// Retries returns the number of dispatch attempts. Valid inside the Callback.
func (c *Command) Retries() int { return c.retries }
