package session

import (
	"time"

	"github.com/capture-protocol/capture-go/pkg/log"
	"github.com/capture-protocol/capture-go/pkg/queue"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

func (s *Session) event(dir log.Direction, cat log.Category, handle wire.Handle) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: s.config.SessionID,
		Direction: dir,
		Layer:     log.LayerSession,
		Category:  cat,
		Handle:    handle,
	}
}

func (s *Session) logRequest(cmd *queue.Command) {
	ev := s.event(log.DirectionOut, log.CategoryMessage, cmd.Handle())
	ev.Message = &log.MessageEvent{
		Type:     log.MessageTypeRequest,
		Token:    cmd.Token(),
		Property: cmd.Property().ID,
	}
	s.plog.Log(ev)
}

func (s *Session) logMessage(msg *wire.Message) {
	kind := msg.Kind
	ev := s.event(log.DirectionIn, log.CategoryMessage, msg.Handle)
	ev.Message = &log.MessageEvent{
		Type:  log.MessageTypeMessage,
		Kind:  &kind,
		Token: msg.Token,
	}
	if msg.Property != nil {
		ev.Message.Property = msg.Property.ID
	}
	if msg.Kind == wire.MessageGetComplete || msg.Kind == wire.MessageSetComplete {
		result := msg.Result
		ev.Message.Result = &result
	}
	s.plog.Log(ev)
}

func (s *Session) logState(from, to State, reason string) {
	ev := s.event(log.DirectionIn, log.CategoryState, wire.HandleNone)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntitySession,
		OldState: from.String(),
		NewState: to.String(),
		Reason:   reason,
	}
	s.plog.Log(ev)
}

func (s *Session) logDevice(handle wire.Handle, state, name string) {
	ev := s.event(log.DirectionIn, log.CategoryState, handle)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityDevice,
		NewState: state,
		Reason:   name,
	}
	s.plog.Log(ev)
}

func (s *Session) logError(result wire.Result, msg, context string) {
	ev := s.event(log.DirectionIn, log.CategoryError, wire.HandleNone)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerSession,
		Message: msg,
		Code:    &result,
		Context: context,
	}
	s.plog.Log(ev)
}
