// Package tinyid implements the 5-byte correlation identifier carried by
// every LAN envelope.
//
// A TinyId packs the originating node's LAN id, the message kind and the
// time of day at which the request was made:
//
//	byte 0: LAN id
//	byte 1: kind (2 bits) | hours (6 bits)
//	byte 2: minutes
//	byte 3: seconds (6 bits) | milliseconds high bits (2 bits)
//	byte 4: milliseconds low byte
//
// Answers reuse the request's LAN id and time fields and only change the
// kind, so a node can match a Response or Error to its request without
// keeping any per-request state.
package tinyid
