// Package commissioning defines the DAC (device address configuration)
// exchange a thing runs against the gateway's DAC service.
//
// # Overview
//
// A fresh thing knows nothing about the network it sits in. It talks to the
// DAC service from a well-known client address, introduces itself with its
// thing id and registration code, and receives an allocation: its own radio
// address plus the uplink channel range and uplink address it must use for
// notifications, reports and answers.
//
// # DAC Flow
//
//  1. Thing generates a thing id and moves to INITIAL
//  2. Thing sends Introduction to the service address and waits (INTRODUCTING)
//  3. Service answers with Allocation; the thing stores it (ALLOCATED)
//     and acknowledges with Allocated
//  4. Thing asks IsConfigured
//  5. Service answers Configured (the thing moves to its allocated address,
//     CONFIGURED) or NotConfigured (the thing drops the allocation and resets)
//
// # Messages
//
// All DAC messages live in namespace F8 03:
//
//	00 Introduction   01 thing id, 02 client address, text registration code
//	03 Allocation     04 channel begin, 05 channel end, 06 uplink address, 07 address
//	08 Allocated      text thing id
//	09 Configured     bare
//	0A IsConfigured   02 client address, text thing id
//	0B NotConfigured  bare
package commissioning
