// Package udp emulates a LoRa radio network over UDP.
//
// A Hub plays the air: radios join the radio addresses they listen on and
// the hub forwards every datagram to the radios that joined its target.
// Each datagram is
//
//	to[3] from[3] payload
//
// A target with channel 0xFF reaches every radio whose two address bytes
// match, on any channel. Datagrams addressed to JoinAddress or LeaveAddress
// carry no payload and manage the routes of the sender for the from
// address.
package udp
