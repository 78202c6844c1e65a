// Package discovery implements mDNS/DNS-SD discovery of emulated radio hubs.
//
// A gateway process that runs a UDP radio hub advertises it as
// _tuxp-hub._udp so that nodes on the same network can find the hub
// without a configured address.
//
// Instance name format: <network>-<channel as two hex digits>
// TXT records include: NW (network name), CH (gateway channel) and
// PV (datagram format version).
package discovery
