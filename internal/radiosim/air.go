package radiosim

import (
	"slices"
	"sync"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Air is a lossless radio medium shared by Radio endpoints.
type Air struct {
	mu     sync.Mutex
	radios []*Radio
}

// NewAir creates an empty medium.
func NewAir() *Air {
	return &Air{}
}

// NewRadio attaches a radio whose module starts at addr.
func (a *Air) NewRadio(addr transport.Address) *Radio {
	r := &Radio{
		air:       a,
		current:   addr,
		persisted: addr,
	}

	a.mu.Lock()
	a.radios = append(a.radios, r)
	a.mu.Unlock()
	return r
}

// deliver appends data to the inbox of every radio listening on to, except
// the sender. It returns the number of radios reached.
func (a *Air) deliver(from *Radio, to transport.Address, data []byte) int {
	a.mu.Lock()
	radios := slices.Clone(a.radios)
	a.mu.Unlock()

	reached := 0
	for _, r := range radios {
		if r == from || !r.listensOn(to) {
			continue
		}
		r.Inject(data)
		reached++
	}
	return reached
}

// Transmission is one frame a radio sent.
type Transmission struct {
	To   transport.Address
	Data []byte
}

// AddressChange records one ChangeAddress call.
type AddressChange struct {
	To      transport.Address
	Persist bool
}

// Failures injects errors into radio operations. A nil field means the
// operation succeeds.
type Failures struct {
	Initialize    error
	Configure     error
	ChangeAddress error
	Send          error
}

// Radio is a simulated radio module attached to an Air.
// It implements transport.Radio and is safe for concurrent use.
type Radio struct {
	air *Air

	mu         sync.Mutex
	current    transport.Address
	persisted  transport.Address
	extra      []transport.Address
	configured bool
	inbox      []byte
	chunkSize  int
	failures   Failures

	sent    []Transmission
	changes []AddressChange
}

// Compile-time interface satisfaction check.
var _ transport.Radio = (*Radio)(nil)

// Initialize powers the module up at its persisted address.
func (r *Radio) Initialize() (transport.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failures.Initialize != nil {
		return transport.Address{}, r.failures.Initialize
	}
	r.current = r.persisted
	return r.current, nil
}

// Configure switches the module to point to point mode.
func (r *Radio) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failures.Configure != nil {
		return r.failures.Configure
	}
	r.configured = true
	return nil
}

// ChangeAddress moves the module to addr.
func (r *Radio) ChangeAddress(addr transport.Address, persist bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failures.ChangeAddress != nil {
		return r.failures.ChangeAddress
	}
	r.current = addr
	if persist {
		r.persisted = addr
	}
	r.changes = append(r.changes, AddressChange{To: addr, Persist: persist})
	return nil
}

// Send transmits data to every radio listening on to.
func (r *Radio) Send(to transport.Address, data []byte) error {
	r.mu.Lock()
	if err := r.failures.Send; err != nil {
		r.mu.Unlock()
		return err
	}
	r.sent = append(r.sent, Transmission{To: to, Data: slices.Clone(data)})
	r.mu.Unlock()

	r.air.deliver(r, to, data)
	return nil
}

// Receive copies buffered bytes into buf, at most one chunk at a time.
// It returns 0 when the inbox is empty.
func (r *Radio) Receive(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(buf)
	if r.chunkSize > 0 && n > r.chunkSize {
		n = r.chunkSize
	}
	n = copy(buf[:n], r.inbox)
	r.inbox = r.inbox[n:]
	return n, nil
}

// Inject appends raw bytes to the inbox as if they had been received.
func (r *Radio) Inject(data []byte) {
	r.mu.Lock()
	r.inbox = append(r.inbox, data...)
	r.mu.Unlock()
}

// Listen makes the radio also receive frames sent to addr.
func (r *Radio) Listen(addrs ...transport.Address) {
	r.mu.Lock()
	r.extra = append(r.extra, addrs...)
	r.mu.Unlock()
}

// SetChunkSize limits how many bytes one Receive returns. Zero removes
// the limit.
func (r *Radio) SetChunkSize(n int) {
	r.mu.Lock()
	r.chunkSize = n
	r.mu.Unlock()
}

// SetFailures replaces the injected failures.
func (r *Radio) SetFailures(f Failures) {
	r.mu.Lock()
	r.failures = f
	r.mu.Unlock()
}

// Address returns the address the module listens on.
func (r *Radio) Address() transport.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// PersistedAddress returns the address the module comes up with.
func (r *Radio) PersistedAddress() transport.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persisted
}

// Configured reports whether Configure succeeded.
func (r *Radio) Configured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configured
}

// Pending returns the number of bytes waiting in the inbox.
func (r *Radio) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inbox)
}

// Sent returns a copy of the transmission history.
func (r *Radio) Sent() []Transmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

// LastSent returns the latest transmission.
func (r *Radio) LastSent() (Transmission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Transmission{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// AddressChanges returns a copy of the ChangeAddress history.
func (r *Radio) AddressChanges() []AddressChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.changes)
}

// ClearSent forgets the transmission history.
func (r *Radio) ClearSent() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

func (r *Radio) listensOn(addr transport.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == addr || slices.Contains(r.extra, addr)
}
