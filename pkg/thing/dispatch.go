package thing

import (
	"fmt"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// dispatch hands a frame received while operational to its action handler.
// Executions are answered on the uplink unless the handler is a query.
func (t *Thing) dispatch(frame []byte) error {
	if !lan.IsExecution(frame) {
		p, err := wire.Parse(frame)
		if err != nil {
			return err
		}
		entry, err := t.lookupAction(p.Name)
		if err != nil {
			return err
		}
		entry.handler(p)
		return nil
	}

	id, action, err := lan.ParseExecution(frame)
	if err != nil {
		return err
	}
	entry, err := t.lookupAction(action.Name)
	if err != nil {
		return err
	}

	start := time.Now()
	code := entry.handler(action)
	elapsed := time.Since(start)
	t.debugLog("action executed", "protocol", action.Name, "tiny_id", id, "code", code, "elapsed", elapsed)

	if entry.isQuery {
		return nil
	}

	answer := lan.NewResponse(id)
	if code != 0 {
		answer = lan.NewError(id, code)
	}
	out, err := lan.MarshalAnswer(answer)
	if err != nil {
		return err
	}
	to := t.chooseUplink()
	if err := t.sender.WriteFrame(to, out); err != nil {
		return err
	}
	t.logAnswer(answer, to.String(), elapsed)
	return nil
}

func (t *Thing) lookupAction(name wire.Name) (*actionEntry, error) {
	entry := t.registry.action(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocolName, name)
	}
	if entry.handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRegisteredProcessor, name)
	}
	return entry, nil
}
