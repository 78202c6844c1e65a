package wire

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"plain", []byte{0x31, 0x34}, []byte{0x31, 0x34}},
		{"single byte wrapped", []byte{0x41}, []byte{0xFC, 0x41}},
		{"single reserved", []byte{0xFF}, []byte{0xFD, 0xFF}},
		{"all reserved", []byte{0xFF, 0xFE, 0xFD, 0xFB, 0xFA}, []byte{0xFD, 0xFF, 0xFD, 0xFE, 0xFD, 0xFD, 0xFD, 0xFB, 0xFD, 0xFA}},
		{"no-replace not escaped", []byte{0xFC, 0x01, 0x02}, []byte{0xFC, 0x01, 0x02}},
		{"tiny id", []byte{0x00, 0x0B, 0x17, 0xD3, 0xE5}, []byte{0x00, 0x0B, 0x17, 0xD3, 0xE5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Escape(tt.in)
			if err != nil {
				t.Fatalf("Escape failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Escape(%x) = %x, want %x", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeTooLarge(t *testing.T) {
	_, err := Escape(make([]byte, MaxAttributeSize+1))
	if !errors.Is(err, ErrAttributeTooLarge) {
		t.Errorf("expected ErrAttributeTooLarge, got %v", err)
	}

	// Exactly the limit is fine, even when every byte needs escaping.
	full := bytes.Repeat([]byte{0xFF}, MaxAttributeSize)
	got, err := Escape(full)
	if err != nil {
		t.Fatalf("Escape failed: %v", err)
	}
	if len(got) != 2*MaxAttributeSize {
		t.Errorf("escaped size = %d, want %d", len(got), 2*MaxAttributeSize)
	}
}

func TestEscapeAmbiguous(t *testing.T) {
	for _, in := range [][]byte{{0xFC, 0x00}, {0xFC, 0x41}, {0xFC, 0xFC}, {0xFC, 0xFF}} {
		_, err := Escape(in)
		if !errors.Is(err, ErrAmbiguousValue) {
			t.Errorf("Escape(%x) error = %v, want ErrAmbiguousValue", in, err)
		}
	}

	// One byte and three bytes led by NoReplace are unambiguous.
	for _, in := range [][]byte{{0xFC}, {0xFC, 0x01, 0x02}} {
		esc, err := Escape(in)
		if err != nil {
			t.Fatalf("Escape(%x) failed: %v", in, err)
		}
		out, err := Unescape(esc)
		if err != nil {
			t.Fatalf("Unescape(%x) failed: %v", esc, err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("round trip of %x gave %x", in, out)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"single byte verbatim", []byte{0x41}, []byte{0x41}},
		{"escaped single", []byte{0xFD, 0xFF}, []byte{0xFF}},
		{"bytes marker stripped", []byte{0xFB, 0x01, 0x02}, []byte{0x01, 0x02}},
		{"bytes marker with escapes", []byte{0xFB, 0xFD, 0xFE, 0x02}, []byte{0xFE, 0x02}},
		{"bytes marker with wrapped single", []byte{0xFB, 0xFC, 0x07}, []byte{0x07}},
		{"byte marker collapses", []byte{0xFA, 0x07}, []byte{0x07}},
		{"byte marker escaped payload", []byte{0xFA, 0xFD, 0xFF}, []byte{0xFF}},
		{"no-replace collapses", []byte{0xFC, 0x41}, []byte{0x41}},
		{"escaped marker is data", []byte{0xFD, 0xFB, 0x01}, []byte{0xFB, 0x01}},
		{"escape before plain byte kept", []byte{0xFD, 0x01}, []byte{0xFD, 0x01}},
		{"plain", []byte{0x31, 0x34}, []byte{0x31, 0x34}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unescape(tt.in)
			if err != nil {
				t.Fatalf("Unescape failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Unescape(%x) = %x, want %x", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnescapeTooLarge(t *testing.T) {
	_, err := Unescape(make([]byte, MaxEscapedAttributeSize+1))
	if !errors.Is(err, ErrAttributeTooLarge) {
		t.Errorf("expected ErrAttributeTooLarge for escaped size, got %v", err)
	}

	_, err = Unescape(make([]byte, MaxAttributeSize+1))
	if !errors.Is(err, ErrAttributeTooLarge) {
		t.Errorf("expected ErrAttributeTooLarge for unescaped size, got %v", err)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	reserved := []byte{0xFF, 0xFE, 0xFD, 0xFB, 0xFA, 0xFC}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		n := rng.Intn(MaxAttributeSize + 1)
		in := make([]byte, n)
		for j := range in {
			if rng.Intn(2) == 0 {
				in[j] = reserved[rng.Intn(len(reserved))]
			} else {
				in[j] = byte(rng.Intn(256))
			}
		}
		esc, err := Escape(in)
		if len(in) == 2 && in[0] == NoReplace {
			if !errors.Is(err, ErrAmbiguousValue) {
				t.Fatalf("Escape(%x) error = %v, want ErrAmbiguousValue", in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Escape(%x) failed: %v", in, err)
		}
		out, err := Unescape(esc)
		if err != nil {
			t.Fatalf("Unescape(%x) failed: %v", esc, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip of %x gave %x (escaped %x)", in, out, esc)
		}
	}
}

func TestEscapeTextRoundTrip(t *testing.T) {
	in := []byte("SL-LE01-C980AFE9\xff\xfe")
	esc, err := EscapeText(in)
	if err != nil {
		t.Fatalf("EscapeText failed: %v", err)
	}
	out, err := UnescapeText(esc)
	if err != nil {
		t.Fatalf("UnescapeText failed: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("round trip = %q, want %q", out, in)
	}

	if _, err := EscapeText(make([]byte, MaxTextSize+1)); !errors.Is(err, ErrTextTooLarge) {
		t.Errorf("expected ErrTextTooLarge, got %v", err)
	}
}
