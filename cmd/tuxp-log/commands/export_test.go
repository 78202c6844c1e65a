package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.tlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func lanID(id uint8) *uint8 { return &id }

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			SessionID: "abc12345",
			Direction: log.DirectionOut,
			Layer:     log.LayerWire,
			Category:  log.CategoryMessage,
			LocalRole: log.RoleGateway,
			Message: &log.MessageEvent{
				Kind:     log.MessageKindExecution,
				Protocol: "f701:00",
				TinyID:   []byte{0x02, 0x0B, 0x17, 0xD3, 0xE5},
			},
		},
		{
			Timestamp: ts.Add(time.Second),
			SessionID: "abc12345",
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryMessage,
			LocalRole: log.RoleGateway,
			Message: &log.MessageEvent{
				Kind:     log.MessageKindResponse,
				Protocol: "f802:07",
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	err := RunExport(path, "jsonl", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first log.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse first line: %v", err)
	}
	if first.SessionID != "abc12345" {
		t.Errorf("expected session abc12345, got %s", first.SessionID)
	}
	if first.Message == nil || first.Message.Protocol != "f701:00" {
		t.Errorf("expected protocol f701:00, got %+v", first.Message)
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:   ts,
			SessionID:   "sess-1",
			Direction:   log.DirectionIn,
			Layer:       log.LayerWire,
			Category:    log.CategoryMessage,
			LocalRole:   log.RoleThing,
			PeerAddress: "efef1f",
			Message: &log.MessageEvent{
				Kind:     log.MessageKindProtocol,
				Protocol: "f803:02",
			},
		},
		{
			Timestamp: ts,
			SessionID: "sess-1",
			Layer:     log.LayerThing,
			Category:  log.CategoryState,
			LanID:     lanID(4),
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityDac,
				NewState: "addressed",
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id,role") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "efef1f") || !strings.Contains(lines[1], "f803:02") {
		t.Errorf("expected peer and protocol in row, got: %s", lines[1])
	}
	if !strings.Contains(lines[2], "lan:4") || !strings.Contains(lines[2], "State") {
		t.Errorf("expected lan id and State type in row, got: %s", lines[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)

	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}
