package commissioning

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Registration code constants.
const (
	// GeneratedCodeLength is the length of a generated registration code.
	GeneratedCodeLength = 12

	// MaxRegistrationCodeLength is the longest code an Introduction can carry.
	MaxRegistrationCodeLength = wire.MaxTextSize
)

// ErrInvalidRegistrationCode indicates a code that cannot travel in an Introduction.
var ErrInvalidRegistrationCode = errors.New("invalid registration code")

const codeAlphabet = "0123456789ABCDEF"

// RegistrationCode is the secret printed on a thing and entered at the
// gateway to approve its introduction.
type RegistrationCode string

// GenerateRegistrationCode generates a random hexadecimal code.
func GenerateRegistrationCode() (RegistrationCode, error) {
	buf := make([]byte, GeneratedCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random registration code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&0x0F]
	}
	return RegistrationCode(buf), nil
}

// ParseRegistrationCode trims and validates s.
func ParseRegistrationCode(s string) (RegistrationCode, error) {
	code := RegistrationCode(strings.TrimSpace(s))
	if err := code.Validate(); err != nil {
		return "", err
	}
	return code, nil
}

// String returns the code.
func (c RegistrationCode) String() string {
	return string(c)
}

// Validate checks the code is non-empty printable ASCII that fits the text payload.
func (c RegistrationCode) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidRegistrationCode)
	}
	if len(c) > MaxRegistrationCodeLength {
		return fmt.Errorf("%w: %d > %d characters", ErrInvalidRegistrationCode, len(c), MaxRegistrationCodeLength)
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 0x20 || c[i] > 0x7E {
			return fmt.Errorf("%w: byte 0x%02x at %d", ErrInvalidRegistrationCode, c[i], i)
		}
	}
	return nil
}
