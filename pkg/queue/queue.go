package queue

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/capture-protocol/capture-go/pkg/wire"
)

// MaxRetries is the number of dispatch attempts after which a failing
// completion is reported to the Callback instead of being retried.
const MaxRetries = 5

// Sender transmits a Command to the device layer. A returned error means the
// request was never accepted and no completion will arrive for it.
type Sender interface {
	GetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error
	SetProperty(handle wire.Handle, prop *wire.Property, token wire.Token) error
}

// Queue serializes Commands. It is safe for concurrent use.
type Queue struct {
	mu sync.Mutex

	sender  Sender
	enabled bool
	cmds    []*Command
	byToken map[wire.Token]*Command

	logger atomic.Pointer[slog.Logger]
}

// New creates a queue that dispatches through sender.
// Dispatch is disabled until SetEnabled(true).
func New(sender Sender) *Queue {
	return &Queue{
		sender:  sender,
		byToken: make(map[wire.Token]*Command),
	}
}

// SetLogger sets the logger for debug output. nil disables logging.
// Safe to call concurrently with any other method.
func (q *Queue) SetLogger(logger *slog.Logger) {
	q.logger.Store(logger)
}

// SetEnabled turns dispatching on or off. While disabled, Commands are still
// accepted but nothing is sent.
func (q *Queue) SetEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	q.mu.Unlock()

	if enabled {
		q.TryDispatchHead()
	}
}

// Enabled reports whether dispatching is on.
func (q *Queue) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// Enqueue appends cmd and attempts a dispatch. An abort Command clears the
// queue first; the superseded Commands are dropped without callbacks.
func (q *Queue) Enqueue(cmd *Command) {
	q.mu.Lock()
	if cmd.abort {
		dropped := len(q.cmds)
		q.clearLocked()
		q.debugLog("queue: abort supersedes queued commands", "dropped", dropped)
	}
	q.insertLocked(len(q.cmds), cmd)
	q.mu.Unlock()

	q.TryDispatchHead()
}

// EnqueueConfirmation queues a data confirmation ahead of ordinary requests.
// It goes directly behind the head, after any confirmations already waiting
// there, so confirmations keep their arrival order among themselves.
func (q *Queue) EnqueueConfirmation(cmd *Command) {
	q.mu.Lock()
	cmd.confirmation = true
	pos := len(q.cmds)
	if len(q.cmds) > 0 {
		pos = 1
		for pos < len(q.cmds) && q.cmds[pos].confirmation {
			pos++
		}
	}
	q.insertLocked(pos, cmd)
	q.mu.Unlock()

	q.TryDispatchHead()
}

func (q *Queue) insertLocked(pos int, cmd *Command) {
	cmd.status = StatusReady
	q.cmds = slices.Insert(q.cmds, pos, cmd)
	q.byToken[cmd.token] = cmd
	q.debugLog("queue: enqueued",
		"token", cmd.token,
		"op", cmd.op,
		"property", cmd.property.ID,
		"handle", cmd.handle,
		"position", pos)
}

// TryDispatchHead sends the head Command if it is Ready and dispatch is
// enabled. A Command the Sender rejects is removed without consuming a retry
// and without a callback (aborts excepted), and the next head is tried.
// Returns true if a Command was handed to the Sender.
func (q *Queue) TryDispatchHead() bool {
	for {
		q.mu.Lock()
		if !q.enabled || len(q.cmds) == 0 || q.cmds[0].status != StatusReady {
			q.mu.Unlock()
			return false
		}
		cmd := q.cmds[0]
		cmd.status = StatusPending
		cmd.retries++
		attempt := cmd.retries
		q.mu.Unlock()

		var err error
		switch cmd.op {
		case OpGet:
			err = q.sender.GetProperty(cmd.handle, cmd.property, cmd.token)
		default:
			err = q.sender.SetProperty(cmd.handle, cmd.property, cmd.token)
		}
		if err == nil {
			q.debugLog("queue: dispatched", "token", cmd.token, "attempt", attempt)
			return true
		}

		q.mu.Lock()
		cmd.retries--
		removed := q.removeLocked(cmd)
		if removed {
			cmd.status = StatusCompleted
			cmd.result = wire.ResultOf(err)
		}
		q.mu.Unlock()

		q.debugLog("queue: dispatch rejected, dropping command",
			"token", cmd.token,
			"property", cmd.property.ID,
			"error", err)

		if removed && cmd.abort && cmd.callback != nil {
			cmd.callback(cmd, err)
		}
	}
}

// Complete routes a completion to the Command with the given token.
//
// On success the Callback fires and the Command is removed. On failure the
// Command is reset to Ready without a callback while fewer than MaxRetries
// attempts have been made; after that, or for a retry-suppressed result, the
// Callback fires with the failure and the Command is removed. The next head
// is dispatched afterwards.
//
// A retry-suppressed result (NotSupported, InvalidHandle) is final after a
// single attempt and fires the Callback, unlike other failures which retry
// silently. Returns false if no queued Command has the token or the Command
// holding it is not in flight.
func (q *Queue) Complete(token wire.Token, result wire.Result, reply *wire.Property) bool {
	q.mu.Lock()
	cmd, ok := q.byToken[token]
	if !ok {
		q.mu.Unlock()
		q.debugLog("queue: completion for unknown token", "token", token, "result", result)
		return false
	}
	if cmd.status != StatusPending {
		q.mu.Unlock()
		q.debugLog("queue: completion for command not in flight", "token", token, "status", cmd.status)
		return false
	}

	attempts := cmd.retries
	if !result.IsSuccess() && !result.IsRetrySuppressed() && attempts < MaxRetries {
		cmd.status = StatusReady
		q.mu.Unlock()
		q.debugLog("queue: silent retry", "token", token, "result", result, "attempts", attempts)
		q.TryDispatchHead()
		return true
	}

	q.removeLocked(cmd)
	cmd.status = StatusCompleted
	cmd.result = result
	if result.IsSuccess() {
		cmd.reply = reply
	}
	q.mu.Unlock()

	q.debugLog("queue: completed", "token", token, "result", result, "attempts", attempts)

	if cmd.callback != nil {
		cmd.callback(cmd, result.Err())
	}
	q.TryDispatchHead()
	return true
}

// RemoveByDevice removes every Command owned by handle, or every Command
// when handle is wire.HandleNone. No callbacks fire. Returns the number removed.
func (q *Queue) RemoveByDevice(handle wire.Handle) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if handle == wire.HandleNone {
		n := len(q.cmds)
		q.clearLocked()
		return n
	}

	kept := q.cmds[:0]
	removed := 0
	for _, cmd := range q.cmds {
		if cmd.handle == handle {
			delete(q.byToken, cmd.token)
			cmd.status = StatusCompleted
			removed++
			continue
		}
		kept = append(kept, cmd)
	}
	clear(q.cmds[len(kept):])
	q.cmds = kept
	if removed > 0 {
		q.debugLog("queue: removed device commands", "handle", handle, "count", removed)
	}
	return removed
}

func (q *Queue) clearLocked() {
	for _, cmd := range q.cmds {
		cmd.status = StatusCompleted
	}
	q.cmds = nil
	q.byToken = make(map[wire.Token]*Command)
}

func (q *Queue) removeLocked(cmd *Command) bool {
	i := slices.Index(q.cmds, cmd)
	if i < 0 {
		return false
	}
	q.cmds = slices.Delete(q.cmds, i, i+1)
	delete(q.byToken, cmd.token)
	return true
}

// Len returns the number of queued Commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// PendingCount returns the number of Pending Commands; it is never above one.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, cmd := range q.cmds {
		if cmd.status == StatusPending {
			n++
		}
	}
	return n
}

// Info is a point-in-time copy of a queued Command.
type Info struct {
	Token        wire.Token
	Op           Op
	Property     wire.PropertyID
	Handle       wire.Handle
	Status       Status
	Retries      int
	Abort        bool
	Confirmation bool
}

// Snapshot returns the queued Commands in order.
func (q *Queue) Snapshot() []Info {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Info, len(q.cmds))
	for i, cmd := range q.cmds {
		out[i] = Info{
			Token:        cmd.token,
			Op:           cmd.op,
			Property:     cmd.property.ID,
			Handle:       cmd.handle,
			Status:       cmd.status,
			Retries:      cmd.retries,
			Abort:        cmd.abort,
			Confirmation: cmd.confirmation,
		}
	}
	return out
}

func (q *Queue) debugLog(msg string, args ...any) {
	if l := q.logger.Load(); l != nil {
		l.Debug(msg, args...)
	}
}
