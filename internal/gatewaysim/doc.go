// Package gatewaysim implements the gateway side of the network: the DAC
// service that allocates addresses to introducing things, and a LAN peer
// that sends executions and collects answers, notifications and reports.
//
// A Gateway is driven by calling Poll regularly. It is used by the thing
// runtime tests over radiosim and by cmd/tuxp-gateway over the UDP radio.
package gatewaysim
