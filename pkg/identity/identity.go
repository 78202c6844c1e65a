package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
)

// MaxThingIDSize is the longest thing id an Introduction can carry.
const MaxThingIDSize = 16

// suffixDigits is the number of random hex digits after the model name.
const suffixDigits = 8

// Identity errors.
var (
	ErrInvalidModel   = errors.New("invalid model name")
	ErrThingIDTooLong = errors.New("thing id too long")
)

// Generator generates thing ids of the form "<model>-xxxxxxxx".
type Generator struct {
	// Model is the model name prefix.
	Model string

	// Code supplies the registration code.
	Code CodeSource

	// Random returns 16 random bytes. Defaults to a version 4 UUID.
	Random func() ([16]byte, error)
}

// CodeSource supplies a registration code.
type CodeSource interface {
	RegistrationCode() (string, error)
}

// NewGenerator creates a generator for model using code.
func NewGenerator(model string, code CodeSource) (*Generator, error) {
	if model == "" || strings.ContainsAny(model, " \t\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModel, model)
	}
	if n := len(model) + 1 + suffixDigits; n > MaxThingIDSize {
		return nil, fmt.Errorf("%w: model %q makes %d byte ids", ErrThingIDTooLong, model, n)
	}
	return &Generator{Model: model, Code: code}, nil
}

// GenerateThingID returns a new thing id. Each digit of the suffix is the
// high nibble of one random byte.
func (g *Generator) GenerateThingID() (string, error) {
	random := g.Random
	if random == nil {
		random = randomUUID
	}
	b, err := random()
	if err != nil {
		return "", err
	}

	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.WriteString(g.Model)
	sb.WriteByte('-')
	for i := 0; i < suffixDigits; i++ {
		sb.WriteByte(digits[b[i]>>4])
	}

	id := sb.String()
	if len(id) > MaxThingIDSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrThingIDTooLong, len(id), MaxThingIDSize)
	}
	return id, nil
}

// RegistrationCode returns the registration code of the device.
func (g *Generator) RegistrationCode() (string, error) {
	if g.Code == nil {
		return "", errors.New("no registration code source")
	}
	return g.Code.RegistrationCode()
}

func randomUUID() ([16]byte, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return [16]byte{}, err
	}
	return u, nil
}

// StaticCode is a registration code fixed at build or configuration time.
type StaticCode string

// RegistrationCode validates and returns the code.
func (c StaticCode) RegistrationCode() (string, error) {
	code, err := commissioning.ParseRegistrationCode(string(c))
	if err != nil {
		return "", err
	}
	return string(code), nil
}

// FileCode reads the registration code from a file, as written by the
// factory provisioning step. Surrounding whitespace is ignored.
type FileCode string

// RegistrationCode reads and validates the code.
func (f FileCode) RegistrationCode() (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("registration code: %w", err)
	}
	return StaticCode(strings.TrimSpace(string(data))).RegistrationCode()
}

// ProvisionFileCode writes a newly generated registration code to path
// unless the file already exists, and returns the code in the file.
func ProvisionFileCode(path string) (string, error) {
	if code, err := FileCode(path).RegistrationCode(); err == nil {
		return code, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	code, err := commissioning.GenerateRegistrationCode()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(string(code)+"\n"), 0600); err != nil {
		return "", err
	}
	return string(code), nil
}
