package thing

import (
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// ActionHandler executes an action. A zero return code is answered with a
// Response, any other code with an Error carrying it.
type ActionHandler func(action *wire.Protocol) int

// DataHandler fills in a data protocol before it is reported.
type DataHandler func(data *wire.Protocol) error

type actionEntry struct {
	name    wire.Name
	handler ActionHandler
	isQuery bool
}

type dataEntry struct {
	name     wire.Name
	handler  DataHandler
	interval int64 // ms

	fired     bool
	lastFired int64
}

// registry holds the action and data registrations. Lookups are linear;
// a node only registers a handful of protocols.
type registry struct {
	actions []*actionEntry
	data    []*dataEntry
}

// addAction registers handler for name, replacing an earlier registration
// of the same name.
func (r *registry) addAction(name wire.Name, handler ActionHandler, isQuery bool) {
	entry := &actionEntry{name: name, handler: handler, isQuery: isQuery}
	for i, e := range r.actions {
		if e.name == name {
			r.actions[i] = entry
			return
		}
	}
	r.actions = append(r.actions, entry)
}

func (r *registry) removeAction(name wire.Name) bool {
	for i, e := range r.actions {
		if e.name == name {
			r.actions = append(r.actions[:i], r.actions[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry) action(name wire.Name) *actionEntry {
	for _, e := range r.actions {
		if e.name == name {
			return e
		}
	}
	return nil
}

// addData registers handler for name, replacing an earlier registration of
// the same name. A replaced entry fires again on the next cycle.
func (r *registry) addData(name wire.Name, handler DataHandler, interval time.Duration) {
	entry := &dataEntry{name: name, handler: handler, interval: interval.Milliseconds()}
	for i, e := range r.data {
		if e.name == name {
			r.data[i] = entry
			return
		}
	}
	r.data = append(r.data, entry)
}

func (r *registry) removeData(name wire.Name) bool {
	for i, e := range r.data {
		if e.name == name {
			r.data = append(r.data[:i], r.data[i+1:]...)
			return true
		}
	}
	return false
}

// due reports whether the entry should fire at now.
func (e *dataEntry) due(now int64) bool {
	return !e.fired || now-e.lastFired >= e.interval
}

// RegisterActionHandler registers a handler for executions of name.
// Query handlers send no answer. Registering a name again replaces the
// earlier handler.
func (t *Thing) RegisterActionHandler(name wire.Name, handler ActionHandler, isQuery bool) {
	t.registry.addAction(name, handler, isQuery)
}

// UnregisterActionHandler removes the action registration for name.
func (t *Thing) UnregisterActionHandler(name wire.Name) bool {
	return t.registry.removeAction(name)
}

// RegisterDataHandler registers a data handler fired every interval while
// the thing is operational. Registering a name again replaces the earlier
// handler.
func (t *Thing) RegisterDataHandler(name wire.Name, handler DataHandler, interval time.Duration) {
	t.registry.addData(name, handler, interval)
}

// UnregisterDataHandler removes the data registration for name.
func (t *Thing) UnregisterDataHandler(name wire.Name) bool {
	return t.registry.removeData(name)
}
