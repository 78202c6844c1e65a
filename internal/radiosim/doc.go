// Package radiosim provides an in-memory radio medium and capability fakes
// for testing thing and gateway runtimes without hardware.
//
// An Air connects any number of Radio endpoints. A frame sent to an address
// is appended to the inbox of every radio listening on it, and each radio
// hands its inbox out in chunks the way a UART radio module does:
//
//	air := radiosim.NewAir()
//	node := air.NewRadio(transport.Address{0x00, 0x00, 0xFF})
//	gw := air.NewRadio(commissioning.ServiceAddress)
//
// ManualClock and Resetter stand in for the board's millisecond timer and
// reset line.
package radiosim
