package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/log"
)

func TestStatsCountsByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerRadio, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerRadio, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerWire, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerThing, Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Total Events: 4", "RADIO:", "WIRE:", "THING:", "STATE:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestStatsSessions(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	code := 1
	events := []log.Event{
		{
			Timestamp: ts, SessionID: "thing-session", LocalRole: log.RoleThing, ThingID: "lamp",
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityDac, NewState: "introduced"},
		},
		{
			Timestamp: ts.Add(time.Second), SessionID: "thing-session", LocalRole: log.RoleThing,
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityDac, NewState: "configured"},
		},
		{
			Timestamp: ts.Add(2 * time.Second), SessionID: "thing-session", LocalRole: log.RoleThing,
			Message: &log.MessageEvent{Kind: log.MessageKindError, ErrorCode: &code},
		},
		{
			Timestamp: ts.Add(3 * time.Second), SessionID: "gw-session", LocalRole: log.RoleGateway,
			Category: log.CategoryReassembly, Reassembly: &log.ReassemblyEvent{Signal: log.SignalAbandon, Dropped: 3},
		},
		{
			Timestamp: ts.Add(4 * time.Second), SessionID: "gw-session", LocalRole: log.RoleGateway,
			Category: log.CategoryError, Error: &log.ErrorEventData{Message: "send failed"},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Sessions: 2",
		"[thing-se] THING, 3 events",
		"Thing: lamp",
		"DAC state: configured",
		"Error answers: 1",
		"[gw-sessi] GATEWAY, 2 events",
		"Dropped radio bytes: 3",
		"Errors: 1",
		"ERROR:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
