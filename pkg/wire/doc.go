// Package wire implements the TUXP binary protocol format used by thing nodes
// and gateways.
//
// A protocol unit is a named element carrying up to eight typed attributes
// and an optional text payload, framed by 0xFF delimiters:
//
//	FF ns0 ns1 local [count flags (name marker? value FE)* text?] FF
//
// A frame holding only the name (FF ns0 ns1 local FF) is a bare protocol.
//
// # Reserved Bytes
//
// Six byte values are reserved on the wire:
//   - 0xFF frame delimiter
//   - 0xFE unit separator (ends an attribute value)
//   - 0xFD escape marker
//   - 0xFC no-replace marker (wraps single-byte values)
//   - 0xFB bytes-type marker
//   - 0xFA byte-type marker
//
// Variable-length values are byte-stuffed with the escape marker so that
// delimiters never appear inside payload data. See Escape and Unescape.
//
// # Attribute Types
//
// Attribute values are a tagged variant (Value). Numbers are carried as their
// ASCII decimal text, so AddInt and AddFloat produce chars values.
//
// # Limits
//
// The limits are part of the interoperability contract with other nodes and
// gateways: 64 bytes per frame, 16 bytes per attribute value, 32 bytes of
// text and 8 attributes per protocol.
package wire
