// Package thing implements the runtime of a radio thing node.
//
// A Thing joins a gateway managed network through the DAC exchange (see
// package commissioning) and then serves LAN executions and reports data
// through the action and data handlers registered with it.
//
// # Capabilities
//
// The runtime owns no hardware. Everything it touches is passed in through
// Config: persistence for the commissioning record, the radio, the identity
// provider, a monotonic clock and a resetter. New fails with
// ErrMissingCapability when one of them is absent.
//
// # Driving a Thing
//
//	t, err := thing.New(cfg)
//	if err != nil { ... }
//	if err := t.BecomeThing(ctx); err != nil { ... }
//	for {
//		if err := t.DoPeriodicWork(ctx); err != nil { ... }
//		time.Sleep(50 * time.Millisecond)
//	}
//
// BecomeThing either resumes a CONFIGURED node or sends the message of the
// current DAC step. DoPeriodicWork reads the radio at most once per receive
// interval, feeds the frames to the DAC state machine or the dispatcher and,
// once the node is operational, fires the data handlers that are due.
//
// # Dispatch
//
// A LAN execution is handed to the action handler registered for its inner
// protocol. The handler's return code is answered with a Response (zero) or
// an Error (anything else) sent to the uplink. Query handlers are not
// answered. Executions for unknown protocols get no answer at all.
package thing
