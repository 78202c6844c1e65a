// Package as32 drives an AS32-TTL-100 LoRa module over a serial port.
//
// The module is configured with three byte command sequences while its
// MD0 and MD1 pins are high, and transmits in fixed point to point mode
// otherwise: every write is the target address followed by the payload.
// USB serial adapters usually wire MD0 and MD1 to DTR and RTS, which is
// what SerialPins drives.
package as32
