// Package log provides structured protocol logging for TUXP things and
// gateways.
//
// It defines the Logger interface and the Event types used to capture what
// happens on the radio and inside the commissioning runtime. It is separate
// from operational logging (slog): protocol capture is a machine-readable
// trace of every frame, decoded message and DAC state change.
//
// # Basic Usage
//
//	// Development: print events through slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Field devices: append to a rotating binary file
//	cfg.ProtocolLogger = log.NewRotatingFileLogger("/var/log/tuxp/thing.tlog", 4, 3)
//
// # Event Types
//
//   - Radio: raw frames as sent or received (FrameEvent) and reassembly
//     signals (ReassemblyEvent)
//   - Wire: decoded protocols and LAN envelopes (MessageEvent)
//   - Thing: DAC state and address changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .tlog extension.
// The tuxp-log tool views, filters, exports and summarizes them.
package log
