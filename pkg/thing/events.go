package thing

import (
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

func (t *Thing) debugLog(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}

func (t *Thing) warnLog(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}

// baseEvent fills in the fields shared by every event of this runtime.
func (t *Thing) baseEvent(direction log.Direction, layer log.Layer, category log.Category) log.Event {
	ev := log.Event{
		Timestamp: time.Now(),
		SessionID: t.sessionID,
		Direction: direction,
		Layer:     layer,
		Category:  category,
		LocalRole: log.RoleThing,
		ThingID:   t.info.ThingID,
	}
	if t.info.State.HasAllocation() {
		lanID := t.LanID()
		ev.LanID = &lanID
	}
	return ev
}

func (t *Thing) logState(entity log.StateEntity, oldState, newState, reason string) {
	if t.protocolLogger == nil {
		return
	}
	ev := t.baseEvent(log.DirectionIn, log.LayerThing, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	t.protocolLogger.Log(ev)
}

func (t *Thing) logError(err error, context string) {
	t.debugLog("error", "context", context, "error", err)
	if t.protocolLogger == nil {
		return
	}
	ev := t.baseEvent(log.DirectionIn, log.LayerThing, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerThing,
		Message: err.Error(),
		Context: context,
	}
	t.protocolLogger.Log(ev)
}

// logMessage records the decoded form of a frame.
func (t *Thing) logMessage(direction log.Direction, peer string, frame []byte) {
	if t.protocolLogger == nil {
		return
	}
	msg := describeFrame(frame)
	if msg == nil {
		return
	}
	ev := t.baseEvent(direction, log.LayerWire, log.CategoryMessage)
	ev.PeerAddress = peer
	ev.Message = msg
	t.protocolLogger.Log(ev)
}

// logAnswer records an answer together with the time its handler took.
func (t *Thing) logAnswer(answer lan.Answer, peer string, elapsed time.Duration) {
	if t.protocolLogger == nil {
		return
	}
	kind := log.MessageKindResponse
	var code *int
	if answer.IsError() {
		kind = log.MessageKindError
		c := answer.Code
		code = &c
	}
	ev := t.baseEvent(log.DirectionOut, log.LayerWire, log.CategoryMessage)
	ev.PeerAddress = peer
	ev.Message = &log.MessageEvent{
		Kind:        kind,
		Protocol:    lan.AnswerName.String(),
		TinyID:      answer.ID.Bytes(),
		ErrorCode:   code,
		HandlerTime: &elapsed,
	}
	t.protocolLogger.Log(ev)
}

// describeFrame decodes a frame for logging. Frames that do not parse are
// left to the radio layer frame events.
func describeFrame(frame []byte) *log.MessageEvent {
	kind, ok := lan.Classify(frame)
	if !ok {
		p, err := wire.Parse(frame)
		if err != nil {
			return nil
		}
		return describeProtocol(log.MessageKindProtocol, p)
	}

	switch kind {
	case lan.KindResponse, lan.KindError:
		answer, err := lan.ParseAnswer(frame)
		if err != nil {
			return nil
		}
		msg := &log.MessageEvent{
			Kind:     log.MessageKindResponse,
			Protocol: lan.AnswerName.String(),
			TinyID:   answer.ID.Bytes(),
		}
		if answer.IsError() {
			msg.Kind = log.MessageKindError
			code := answer.Code
			msg.ErrorCode = &code
		}
		return msg

	default:
		env, err := lan.ParseEnvelope(frame)
		if err != nil {
			return nil
		}
		msg := describeProtocol(envelopeMessageKind(env.Kind), env.Body)
		msg.TinyID = env.ID.Bytes()
		msg.AckRequired = env.AckRequired
		return msg
	}
}

func describeProtocol(kind log.MessageKind, p *wire.Protocol) *log.MessageEvent {
	text, _ := p.Text()
	return &log.MessageEvent{
		Kind:       kind,
		Protocol:   p.Name.String(),
		Attributes: p.Len(),
		Text:       text,
	}
}

func envelopeMessageKind(k lan.Kind) log.MessageKind {
	switch k {
	case lan.KindExecution:
		return log.MessageKindExecution
	case lan.KindNotification:
		return log.MessageKindNotification
	case lan.KindReport:
		return log.MessageKindReport
	default:
		return log.MessageKindProtocol
	}
}
