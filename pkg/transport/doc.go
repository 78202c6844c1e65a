// Package transport extracts protocol frames from the radio byte stream and
// defines the radio capability the thing runtime talks to.
//
// A radio delivers whatever bytes happen to be available. Frames may arrive
// split across several reads, several frames may arrive in one read, and
// noise may precede a frame. The Reassembler accumulates bytes in a fixed
// 128 byte buffer and hands out one complete FF..FF frame at a time.
//
// # Frame boundaries
//
// A frame starts at the first FF that is not escaped and is not immediately
// followed by another FF (the terminator of a previous frame followed by the
// delimiter of the next one). It ends at the next FF that is not escaped.
// An FF counts as escaped when an odd run of FD bytes precedes it.
//
// # Readers and writers
//
// FrameReader pairs any io.Reader with a Reassembler and FrameWriter sends
// complete frames to a radio address. Both emit protocol log events when a
// log.Logger is configured.
package transport
