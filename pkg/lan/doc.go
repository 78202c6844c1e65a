// Package lan implements the LAN envelopes exchanged between a configured
// thing and its gateway.
//
// Every envelope is a protocol-shaped frame with a fixed name and header,
// followed by attribute 0x06 holding the escaped TinyId as a bytes value:
//
//	Execution     FF F8 04 05 01 01 06 FB <tinyid> FE <action body> FF
//	Notification  FF F8 02 05 01 01 06 FB <tinyid> FE <event body> FF
//	Report        FF F8 0A 05 01 01 06 FB <tinyid> FE <data body> FF
//	Response      FF F8 02 07 01 00 06 FB <tinyid> FF
//	Error         FF F8 02 07 02 00 06 FB <tinyid> FE 08 <code> FF
//
// The body of an inner protocol is its frame without the leading delimiter
// and name bytes, inlined rather than nested as a typed value. Response and
// Error are told apart by the TinyId kind.
package lan
