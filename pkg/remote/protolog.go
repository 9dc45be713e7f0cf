package remote

import (
	"time"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// envelopeEvent describes env as a wire-layer log event.
func envelopeEvent(connID string, env *wire.Envelope, dir log.Direction) log.Event {
	op := env.Op
	me := &log.MessageEvent{
		Type:  log.MessageTypeRequest,
		Op:    &op,
		Seq:   env.Seq,
		Token: env.Token,
	}
	if env.Property != nil {
		me.Property = env.Property.ID
	}

	handle := env.Handle
	switch env.Op {
	case wire.OpReply:
		me.Type = log.MessageTypeReply
		result := env.Result
		me.Result = &result
	case wire.OpMessage:
		me.Type = log.MessageTypeMessage
		kind := env.Message.Kind
		me.Kind = &kind
		me.Token = env.Message.Token
		handle = env.Message.Handle
		if env.Message.Property != nil {
			me.Property = env.Message.Property.ID
		}
	}

	return log.Event{
		Timestamp: time.Now(),
		SessionID: connID,
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Handle:    handle,
		Message:   me,
	}
}

func (l *Layer) logEnvelope(connID string, env *wire.Envelope, dir log.Direction) {
	l.plog.Log(envelopeEvent(connID, env, dir))
}
