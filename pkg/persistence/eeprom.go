package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// EEPROM image layout.
//
//	[0]            thing id length, 0 on a fresh device
//	[1..n]         thing id
//	[n+1]          DAC state byte
//	[n+2..n+3]     uplink channel begin, int16 little endian  (ALLOCATED, CONFIGURED)
//	[n+4..n+5]     uplink channel end, int16 little endian
//	[n+6]          uplink address high byte
//	[n+7]          uplink address low byte
//	[n+8..n+10]    allocated address
//	[len-3..len-1] format marker FD FE FF
const (
	// DefaultEEPROMSize is the EEPROM size of an ATmega328P board.
	DefaultEEPROMSize = 1024

	// MinEEPROMSize holds the longest record and the marker.
	MinEEPROMSize = 1 + maxEEPROMThingID + 1 + eepromAllocationSize + len(eepromMarker)

	maxEEPROMThingID     = 16
	eepromAllocationSize = 2 + 2 + 1 + 1 + transport.AddressSize
)

var eepromMarker = [...]byte{0xFD, 0xFE, 0xFF}

// EEPROM errors.
var (
	ErrEEPROMTooSmall = errors.New("eeprom image too small")
	ErrCorruptImage   = errors.New("corrupt eeprom image")
	ErrThingIDTooLong = errors.New("thing id too long for eeprom")
	ErrNoThingID      = errors.New("record without thing id")
)

// EEPROMStore keeps the commissioning record in an EEPROM image.
type EEPROMStore struct {
	mu    sync.Mutex
	image []byte
	path  string // empty for an in-memory image
}

// NewEEPROMStore creates an in-memory store over a blank image of size
// bytes. The image is formatted.
func NewEEPROMStore(size int) (*EEPROMStore, error) {
	return NewEEPROMStoreFromImage(make([]byte, size))
}

// NewEEPROMStoreFromImage creates an in-memory store over image. An image
// without the format marker is formatted.
func NewEEPROMStoreFromImage(image []byte) (*EEPROMStore, error) {
	if len(image) < MinEEPROMSize {
		return nil, fmt.Errorf("%w: %d < %d bytes", ErrEEPROMTooSmall, len(image), MinEEPROMSize)
	}
	s := &EEPROMStore{image: image}
	if !s.formatted() {
		s.format()
	}
	return s, nil
}

// OpenEEPROMFile creates a store backed by the image file at path. A missing
// file is created with size bytes; an existing file keeps its size.
func OpenEEPROMFile(path string, size int) (*EEPROMStore, error) {
	image, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		image = make([]byte, size)
	} else if err != nil {
		return nil, err
	}

	s, err := NewEEPROMStoreFromImage(image)
	if err != nil {
		return nil, err
	}
	s.path = path
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load decodes the record. Returns nil, nil on a fresh device.
func (s *EEPROMStore) Load() (*commissioning.ThingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idLen := int(s.image[0])
	if idLen == 0 {
		return nil, nil
	}
	if idLen > maxEEPROMThingID {
		return nil, fmt.Errorf("%w: thing id length %d", ErrCorruptImage, idLen)
	}

	info := commissioning.NewThingInfo()
	info.ThingID = string(s.image[1 : 1+idLen])
	pos := 1 + idLen

	state := commissioning.DacState(s.image[pos])
	if !state.Valid() {
		return nil, fmt.Errorf("%w: state byte %d", ErrCorruptImage, s.image[pos])
	}
	info.State = state
	pos++

	if state.HasAllocation() {
		rec := s.image[pos : pos+eepromAllocationSize]
		addr, _ := transport.AddressFromBytes(rec[6:9])
		info.ApplyAllocation(&commissioning.Allocation{
			UplinkChannelBegin: int(int16(binary.LittleEndian.Uint16(rec[0:2]))),
			UplinkChannelEnd:   int(int16(binary.LittleEndian.Uint16(rec[2:4]))),
			UplinkAddressHigh:  rec[4],
			UplinkAddressLow:   rec[5],
			Address:            addr,
		})
	}
	return info, nil
}

// Save encodes the record into the image.
func (s *EEPROMStore) Save(info *commissioning.ThingInfo) error {
	if info.ThingID == "" {
		return ErrNoThingID
	}
	if len(info.ThingID) > maxEEPROMThingID {
		return fmt.Errorf("%w: %d > %d bytes", ErrThingIDTooLong, len(info.ThingID), maxEEPROMThingID)
	}
	if info.State.HasAllocation() && info.Address == nil {
		return fmt.Errorf("%w: %s record without address", ErrCorruptImage, info.State)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.image[0] = byte(len(info.ThingID))
	pos := 1 + copy(s.image[1:], info.ThingID)
	s.image[pos] = byte(info.State)
	pos++

	if info.State.HasAllocation() {
		rec := s.image[pos : pos+eepromAllocationSize]
		binary.LittleEndian.PutUint16(rec[0:2], uint16(int16(info.UplinkChannelBegin)))
		binary.LittleEndian.PutUint16(rec[2:4], uint16(int16(info.UplinkChannelEnd)))
		rec[4] = info.UplinkAddressHigh
		rec[5] = info.UplinkAddressLow
		copy(rec[6:9], info.Address[:])
	}
	return s.flush()
}

// Invalidate clears the format marker. The next open formats the image,
// which wipes the record.
func (s *EEPROMStore) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image[len(s.image)-1] = 0
	return s.flush()
}

// Image returns a copy of the raw image.
func (s *EEPROMStore) Image() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.image)
}

func (s *EEPROMStore) formatted() bool {
	return bytes.Equal(s.image[len(s.image)-len(eepromMarker):], eepromMarker[:])
}

func (s *EEPROMStore) format() {
	clear(s.image)
	copy(s.image[len(s.image)-len(eepromMarker):], eepromMarker[:])
}

func (s *EEPROMStore) flush() error {
	if s.path == "" {
		return nil
	}
	return os.WriteFile(s.path, s.image, 0644)
}
