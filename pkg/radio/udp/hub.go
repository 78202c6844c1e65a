package udp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Hub forwards datagrams between radios.
type Hub struct {
	conn   *net.UDPConn
	logger *slog.Logger

	mu     sync.Mutex
	routes map[string]*route
}

// route is one radio endpoint and the addresses it joined.
type route struct {
	peer      *net.UDPAddr
	addresses []transport.Address
}

// ListenHub opens a hub on addr, for example ":41794" or "127.0.0.1:0".
func ListenHub(addr string, logger *slog.Logger) (*Hub, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Hub{
		conn:   conn,
		logger: logger,
		routes: make(map[string]*route),
	}, nil
}

// Addr returns the local address of the hub.
func (h *Hub) Addr() *net.UDPAddr {
	return h.conn.LocalAddr().(*net.UDPAddr)
}

// Port returns the UDP port of the hub.
func (h *Hub) Port() int {
	return h.Addr().Port
}

// Serve forwards datagrams until ctx is done or the hub is closed.
func (h *Hub) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = h.conn.Close() })
	defer stop()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, peer, err := h.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		d, err := ParseDatagram(buf[:n])
		if err != nil {
			h.debugLog("datagram dropped", "peer", peer, "error", err)
			continue
		}
		h.handle(d, buf[:n], peer)
	}
}

// Close stops the hub.
func (h *Hub) Close() error {
	return h.conn.Close()
}

func (h *Hub) handle(d Datagram, raw []byte, peer *net.UDPAddr) {
	switch d.To {
	case JoinAddress:
		h.join(peer, d.From)
		return
	case LeaveAddress:
		h.leave(peer, d.From)
		return
	}

	sender := peer.String()
	for _, target := range h.targets(d.To, sender) {
		if _, err := h.conn.WriteToUDP(raw, target); err != nil {
			h.warnLog("forward failed", "to", d.To, "peer", target, "error", err)
		}
	}
}

func (h *Hub) join(peer *net.UDPAddr, addr transport.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := peer.String()
	r, ok := h.routes[key]
	if !ok {
		r = &route{peer: peer}
		h.routes[key] = r
	}
	if !slices.Contains(r.addresses, addr) {
		r.addresses = append(r.addresses, addr)
	}
	h.debugLog("radio joined", "peer", key, "address", addr)
}

func (h *Hub) leave(peer *net.UDPAddr, addr transport.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := peer.String()
	r, ok := h.routes[key]
	if !ok {
		return
	}
	r.addresses = slices.DeleteFunc(r.addresses, func(a transport.Address) bool { return a == addr })
	if len(r.addresses) == 0 {
		delete(h.routes, key)
	}
	h.debugLog("radio left", "peer", key, "address", addr)
}

// targets returns the endpoints that hear a datagram sent to addr, except
// the sender.
func (h *Hub) targets(addr transport.Address, sender string) []*net.UDPAddr {
	h.mu.Lock()
	defer h.mu.Unlock()

	var peers []*net.UDPAddr
	for key, r := range h.routes {
		if key == sender {
			continue
		}
		if slices.ContainsFunc(r.addresses, func(a transport.Address) bool { return Reaches(addr, a) }) {
			peers = append(peers, r.peer)
		}
	}
	return peers
}

// Listeners returns how many radios hear addr.
func (h *Hub) Listeners(addr transport.Address) int {
	return len(h.targets(addr, ""))
}

func (h *Hub) debugLog(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Hub) warnLog(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
