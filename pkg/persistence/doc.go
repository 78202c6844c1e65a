// Package persistence stores the commissioning record of a thing and the
// allocation table of a gateway so that both survive restarts.
//
// Three ThingInfo stores are provided:
//   - JSONStore writes a versioned JSON file.
//   - EEPROMStore keeps the record in a fixed-size EEPROM image using the
//     byte layout of the reference boards, in memory or backed by a file.
//   - MemoryStore keeps the record in memory, for tests and simulators.
//
// GatewayStateStore keeps the gateway's allocation table as JSON.
package persistence
