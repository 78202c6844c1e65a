package wire

import (
	"errors"
	"strings"
	"testing"
)

func TestProtocolClosedAfterText(t *testing.T) {
	p := New(NewName(0xF8, 0x03, 0x0A))
	if err := p.AddBytes(0x02, []byte{0xEF, 0xEF, 0x1F}); err != nil {
		t.Fatalf("AddBytes failed: %v", err)
	}
	if err := p.SetText("thing"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}

	if err := p.AddByte(0x03, 0x01); !errors.Is(err, ErrProtocolChangeClosed) {
		t.Errorf("Add after text: got %v, want ErrProtocolChangeClosed", err)
	}
	if err := p.SetText("again"); !errors.Is(err, ErrProtocolChangeClosed) {
		t.Errorf("second SetText: got %v, want ErrProtocolChangeClosed", err)
	}
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}

func TestProtocolLimits(t *testing.T) {
	p := New(NewName(0x01, 0x02, 0x03))
	for i := 0; i < MaxAttributes; i++ {
		if err := p.AddRBS(byte(i), 0x01); err != nil {
			t.Fatalf("AddRBS %d failed: %v", i, err)
		}
	}
	if err := p.AddRBS(0x09, 0x01); !errors.Is(err, ErrTooManyAttributes) {
		t.Errorf("ninth attribute: got %v, want ErrTooManyAttributes", err)
	}

	q := New(NewName(0x01, 0x02, 0x03))
	if err := q.AddChars(0x01, strings.Repeat("a", MaxAttributeSize+1)); !errors.Is(err, ErrAttributeTooLarge) {
		t.Errorf("large chars: got %v, want ErrAttributeTooLarge", err)
	}
	if err := q.SetText(strings.Repeat("a", MaxTextSize+1)); !errors.Is(err, ErrTextTooLarge) {
		t.Errorf("large text: got %v, want ErrTextTooLarge", err)
	}
	if _, ok := q.Text(); ok {
		t.Error("rejected text should not be set")
	}
}

func TestProtocolRejectsAmbiguousValues(t *testing.T) {
	p := New(NewName(0xF8, 0x03, 0x03))
	if err := p.AddBytes(0x06, []byte{0xFC, 0x10}); !errors.Is(err, ErrAmbiguousValue) {
		t.Errorf("bytes led by no-replace: got %v, want ErrAmbiguousValue", err)
	}
	if err := p.AddChars(0x01, "\xFCa"); !errors.Is(err, ErrAmbiguousValue) {
		t.Errorf("chars led by no-replace: got %v, want ErrAmbiguousValue", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}

	if err := p.AddBytes(0x06, []byte{0x10, 0xFC}); err != nil {
		t.Errorf("trailing no-replace: %v", err)
	}
	if err := p.AddBytes(0x07, []byte{0xFC}); err != nil {
		t.Errorf("single no-replace: %v", err)
	}
}

func TestProtocolNumbers(t *testing.T) {
	p := New(NewName(0xF8, 0x03, 0x03))
	if err := p.AddInt(0x04, 4660); err != nil {
		t.Fatalf("AddInt failed: %v", err)
	}
	if err := p.AddFloat(0x05, 21.456); err != nil {
		t.Fatalf("AddFloat failed: %v", err)
	}

	if s, _ := p.Chars(0x05); s != "21.46" {
		t.Errorf("float text = %q, want %q", s, "21.46")
	}
	if i, ok := p.Int(0x04); !ok || i != 4660 {
		t.Errorf("Int = %d, %v, want 4660", i, ok)
	}
	if f, ok := p.Float(0x05); !ok || f != 21.46 {
		t.Errorf("Float = %v, %v, want 21.46", f, ok)
	}
	if _, ok := p.Int(0x05); ok {
		t.Error("Int should fail on a float value")
	}
	if _, ok := p.Bytes(0x04); ok {
		t.Error("Bytes should fail on a chars value")
	}
	if _, ok := p.Byte(0x07); ok {
		t.Error("missing attribute should not be found")
	}
}

func TestNameString(t *testing.T) {
	if got := NewName(0xF8, 0x03, 0x0A).String(); got != "f803:0a" {
		t.Errorf("String = %q, want %q", got, "f803:0a")
	}
}
