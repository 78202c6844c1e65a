package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp:   time.Now(),
		SessionID:   "s-123",
		Direction:   DirectionIn,
		Layer:       LayerRadio,
		PeerAddress: "efef1f",
		Frame:       &FrameEvent{Size: 5, Data: []byte{0xFF, 0xF8, 0x03, 0x09, 0xFF}},
	})

	if entry["msg"] != "protocol" {
		t.Errorf("msg: got %v, want %q", entry["msg"], "protocol")
	}
	if entry["session"] != "s-123" {
		t.Errorf("session: got %v", entry["session"])
	}
	if entry["layer"] != "RADIO" {
		t.Errorf("layer: got %v", entry["layer"])
	}
	if entry["frame"] != "fff80309ff" {
		t.Errorf("frame: got %v", entry["frame"])
	}
	if entry["peer"] != "efef1f" {
		t.Errorf("peer: got %v", entry["peer"])
	}
}

func TestSlogAdapterLogsMessageEvent(t *testing.T) {
	code := 7
	lan := uint8(31)
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		Layer:     LayerWire,
		LanID:     &lan,
		Message: &MessageEvent{
			Kind:      MessageKindError,
			Protocol:  "f802:07",
			TinyID:    []byte{0x1F, 0x8B, 0x17, 0xD3, 0xE5},
			ErrorCode: &code,
		},
	})

	if entry["kind"] != "ERROR" || entry["protocol"] != "f802:07" {
		t.Errorf("kind/protocol: got %v/%v", entry["kind"], entry["protocol"])
	}
	if entry["tiny_id"] != "1f8b17d3e5" {
		t.Errorf("tiny_id: got %v", entry["tiny_id"])
	}
	if entry["error_code"] != float64(7) {
		t.Errorf("error_code: got %v", entry["error_code"])
	}
	if entry["lan_id"] != float64(31) {
		t.Errorf("lan_id: got %v", entry["lan_id"])
	}
}

func TestSlogAdapterLogsStateAndReassembly(t *testing.T) {
	entry := logJSON(t, Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityDac, OldState: "INITIAL", NewState: "INTRODUCTING"},
	})
	if entry["entity"] != "DAC" || entry["new_state"] != "INTRODUCTING" {
		t.Errorf("state: got %v/%v", entry["entity"], entry["new_state"])
	}

	entry = logJSON(t, Event{
		Category:   CategoryReassembly,
		Reassembly: &ReassemblyEvent{Signal: SignalAbandon, Dropped: 12},
	})
	if entry["signal"] != "ABANDON" || entry["dropped"] != float64(12) {
		t.Errorf("reassembly: got %v/%v", entry["signal"], entry["dropped"])
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Frame: &FrameEvent{Size: 1}})

	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}
