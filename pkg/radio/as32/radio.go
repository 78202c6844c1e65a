package as32

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Command bytes.
const (
	cmdSavePersistent = 0xC0
	cmdSaveVolatile   = 0xC2
	cmdReadConfig     = 0xC1
	cmdReset          = 0xC9

	// fixedTransmission in the option byte selects point to point mode.
	fixedTransmission = 0x80

	configSize = 5
	replyLimit = 16
)

// okReply ends the reply to every accepted write command.
var okReply = []byte{0x4F, 0x4B, 0x0D, 0x0A}

// Defaults.
const (
	DefaultBaudRate    = 9600
	DefaultSettle      = time.Second
	DefaultReadTimeout = 10 * time.Millisecond
)

var (
	ErrNoConfig        = errors.New("radio configuration not readable")
	ErrNotAcknowledged = errors.New("radio did not acknowledge the command")
	ErrNotInitialized  = errors.New("radio not initialized")
)

// Port is the part of a serial port the radio uses.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Config configures a module.
type Config struct {
	// PortName is the serial device, for example /dev/ttyUSB0.
	PortName string

	// BaudRate of the UART. The module ships at 9600.
	BaudRate int

	// Settle is the pause around mode switches and command replies.
	Settle time.Duration

	// ReadTimeout bounds a Receive call that finds nothing buffered.
	ReadTimeout time.Duration

	// ExternalModePins disables driving MD0 and MD1 through DTR and RTS.
	ExternalModePins bool

	// Logger receives radio diagnostics. Nil disables them.
	Logger *slog.Logger

	// Sleep replaces time.Sleep.
	Sleep func(time.Duration)
}

func (c *Config) applyDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// Radio is an AS32-TTL-100 module. It implements transport.Radio.
type Radio struct {
	config Config
	port   Port
	pins   ModePins

	mu      sync.Mutex
	configs []byte
}

var _ transport.Radio = (*Radio)(nil)

// Open opens the serial port of a module.
func Open(config Config) (*Radio, error) {
	config.applyDefaults()

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(config.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.PortName, err)
	}

	var pins ModePins = SerialPins{Port: port}
	if config.ExternalModePins {
		pins = NopPins{}
	}
	r, err := New(port, pins, config)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an already open port.
func New(port Port, pins ModePins, config Config) (*Radio, error) {
	config.applyDefaults()
	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	if pins == nil {
		pins = NopPins{}
	}
	return &Radio{config: config, port: port, pins: pins}, nil
}

// Initialize reads the module configuration and returns its address.
func (r *Radio) Initialize() (transport.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.pins.SetMode(ModeTransmit); err != nil {
		return transport.Address{}, err
	}
	r.config.Sleep(r.config.Settle)

	reply, err := r.execute([]byte{cmdReadConfig, cmdReadConfig, cmdReadConfig})
	if err != nil {
		return transport.Address{}, err
	}
	if len(reply) < configSize+1 {
		return transport.Address{}, fmt.Errorf("%w: % x", ErrNoConfig, reply)
	}
	start := len(reply) - configSize - 1
	if reply[start] != cmdSavePersistent && reply[start] != cmdSaveVolatile {
		return transport.Address{}, fmt.Errorf("%w: % x", ErrNoConfig, reply)
	}
	r.configs = append([]byte(nil), reply[start+1:]...)

	addr := transport.Address{r.configs[0], r.configs[1], r.configs[3]}
	r.debugLog("radio initialized", "address", addr, "configs", fmt.Sprintf("% x", r.configs))
	return addr, nil
}

// Configure switches the module to fixed point to point transmission
// unless it already is.
func (r *Radio) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configs == nil {
		return ErrNotInitialized
	}
	if r.configs[4]&fixedTransmission != 0 {
		r.debugLog("radio already in point to point mode")
		return nil
	}

	cmd := []byte{cmdSavePersistent, r.configs[0], r.configs[1], r.configs[2], r.configs[3], r.configs[4] | fixedTransmission}
	if err := r.executeOK(cmd); err != nil {
		return err
	}
	r.configs[4] |= fixedTransmission
	return nil
}

// ChangeAddress moves the module to addr. Without persist the module falls
// back to its stored address after a power cycle.
func (r *Radio) ChangeAddress(addr transport.Address, persist bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configs == nil {
		return ErrNotInitialized
	}
	head := byte(cmdSaveVolatile)
	if persist {
		head = cmdSavePersistent
	}
	cmd := []byte{head, addr[0], addr[1], r.configs[2], addr[2], r.configs[4]}
	if err := r.executeOK(cmd); err != nil {
		return err
	}
	r.configs[0], r.configs[1], r.configs[3] = addr[0], addr[1], addr[2]
	r.debugLog("radio address changed", "address", addr, "persist", persist)
	return nil
}

// Reset restarts the module.
func (r *Radio) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reply, err := r.execute([]byte{cmdReset, cmdReset, cmdReset})
	r.debugLog("radio reset", "reply", fmt.Sprintf("% x", reply))
	return err
}

// Send transmits data to a radio address.
func (r *Radio) Send(to transport.Address, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]byte, 0, transport.AddressSize+len(data))
	out = append(out, to[:]...)
	out = append(out, data...)
	_, err := r.port.Write(out)
	return err
}

// Receive reads whatever the module has buffered.
func (r *Radio) Receive(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port.Read(buf)
}

// Close releases the serial port.
func (r *Radio) Close() error {
	return r.port.Close()
}

func (r *Radio) executeOK(cmd []byte) error {
	reply, err := r.execute(cmd)
	if err != nil {
		return err
	}
	if !isOK(reply) {
		return fmt.Errorf("%w: % x replied % x", ErrNotAcknowledged, cmd, reply)
	}
	return nil
}

// execute runs one command in config mode and returns the reply.
// It must be called with r.mu held.
func (r *Radio) execute(cmd []byte) (reply []byte, err error) {
	if err := r.pins.SetMode(ModeConfig); err != nil {
		return nil, err
	}
	defer func() {
		if perr := r.pins.SetMode(ModeTransmit); perr != nil && err == nil {
			err = perr
		}
		r.config.Sleep(r.config.Settle)
	}()
	r.config.Sleep(r.config.Settle)

	if _, err := r.port.Write(cmd); err != nil {
		return nil, err
	}
	r.config.Sleep(r.config.Settle)

	buf := make([]byte, replyLimit)
	for len(reply) < replyLimit {
		n, err := r.port.Read(buf[:replyLimit-len(reply)])
		if err != nil {
			return reply, err
		}
		if n == 0 {
			break
		}
		reply = append(reply, buf[:n]...)
	}
	r.debugLog("radio command", "command", fmt.Sprintf("% x", cmd), "reply", fmt.Sprintf("% x", reply))
	return reply, nil
}

func isOK(reply []byte) bool {
	return bytes.HasSuffix(reply, okReply)
}

func (r *Radio) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
