package udp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// DefaultReadTimeout is how long Receive waits for a datagram.
const DefaultReadTimeout = 5 * time.Millisecond

// Config configures an emulated radio.
type Config struct {
	// HubAddr is the host:port of the hub.
	HubAddr string

	// Address is the address the radio module comes up with.
	Address transport.Address

	// ReadTimeout bounds a Receive call that finds nothing buffered.
	ReadTimeout time.Duration

	// Logger receives radio diagnostics. Nil disables them.
	Logger *slog.Logger
}

// Radio is an emulated radio module attached to a Hub.
// It implements transport.Radio and is safe for concurrent use.
type Radio struct {
	config Config
	conn   *net.UDPConn

	mu         sync.Mutex
	current    transport.Address
	persisted  transport.Address
	listening  []transport.Address
	configured bool
	pending    []byte
	closed     bool
}

var _ transport.Radio = (*Radio)(nil)

// Dial connects a radio to its hub. The radio hears nothing until
// Initialize joins its address.
func Dial(config Config) (*Radio, error) {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	hub, err := net.ResolveUDPAddr("udp", config.HubAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve hub %q: %w", config.HubAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, hub)
	if err != nil {
		return nil, err
	}
	return &Radio{
		config:    config,
		conn:      conn,
		current:   config.Address,
		persisted: config.Address,
	}, nil
}

// Initialize brings the module up on its persisted address.
func (r *Radio) Initialize() (transport.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return transport.Address{}, ErrClosed
	}
	if r.current != r.persisted {
		if err := r.control(LeaveAddress, r.current); err != nil {
			return transport.Address{}, err
		}
	}
	r.current = r.persisted
	if err := r.control(JoinAddress, r.current); err != nil {
		return transport.Address{}, err
	}
	for _, addr := range r.listening {
		if err := r.control(JoinAddress, addr); err != nil {
			return transport.Address{}, err
		}
	}
	r.debugLog("radio initialized", "address", r.current)
	return r.current, nil
}

// Configure puts the module into point to point mode.
func (r *Radio) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.configured = true
	return nil
}

// ChangeAddress moves the module to addr.
func (r *Radio) ChangeAddress(addr transport.Address, persist bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if addr != r.current {
		if err := r.control(LeaveAddress, r.current); err != nil {
			return err
		}
		if err := r.control(JoinAddress, addr); err != nil {
			return err
		}
	}
	r.current = addr
	if persist {
		r.persisted = addr
	}
	r.debugLog("radio address changed", "address", addr, "persist", persist)
	return nil
}

// Listen makes the radio hear addrs in addition to its own address.
func (r *Radio) Listen(addrs ...transport.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	for _, addr := range addrs {
		if err := r.control(JoinAddress, addr); err != nil {
			return err
		}
		r.listening = append(r.listening, addr)
	}
	return nil
}

// Send transmits data to a radio address.
func (r *Radio) Send(to transport.Address, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	raw, err := Datagram{To: to, From: r.current, Payload: data}.Marshal()
	if err != nil {
		return err
	}
	_, err = r.conn.Write(raw)
	return err
}

// Receive copies buffered payload bytes into buf. It waits at most
// ReadTimeout for a datagram and returns 0 when none arrived.
func (r *Radio) Receive(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	if len(r.pending) == 0 {
		if err := r.readDatagram(); err != nil {
			return 0, err
		}
	}

	n := copy(buf, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// readDatagram must be called with r.mu held.
func (r *Radio) readDatagram() error {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout)); err != nil {
		return err
	}

	raw := make([]byte, MaxDatagramSize)
	n, err := r.conn.Read(raw)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return nil
	}
	if err != nil {
		return err
	}

	d, err := ParseDatagram(raw[:n])
	if err != nil {
		r.debugLog("datagram dropped", "error", err)
		return nil
	}
	r.pending = d.Payload
	return nil
}

// Address returns the current address of the module.
func (r *Radio) Address() transport.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Configured reports whether Configure was called.
func (r *Radio) Configured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configured
}

// Close leaves the hub and releases the socket.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	_ = r.control(LeaveAddress, r.current)
	for _, addr := range r.listening {
		_ = r.control(LeaveAddress, addr)
	}
	r.closed = true
	return r.conn.Close()
}

// control must be called with r.mu held.
func (r *Radio) control(op, addr transport.Address) error {
	raw, err := Datagram{To: op, From: addr}.Marshal()
	if err != nil {
		return err
	}
	_, err = r.conn.Write(raw)
	return err
}

func (r *Radio) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
