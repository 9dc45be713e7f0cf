package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/capture-protocol/capture-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	var events []log.Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, e)
	}
}

func TestFilterBySession(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.cbor")

	n, err := RunFilter(path, out, FilterOptions{SessionID: "conn-bbbb-2222"})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events written, got %d", n)
	}
	for _, e := range readAll(t, out) {
		if e.SessionID != "conn-bbbb-2222" {
			t.Errorf("unexpected session %q", e.SessionID)
		}
	}
}

func TestFilterByHandleAndCategory(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.cbor")

	n, err := RunFilter(path, out, FilterOptions{Handle: "3", Layer: "wire", Direction: "in"})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
	events := readAll(t, out)
	if len(events) != 1 || events[0].Message == nil || events[0].Message.Type != log.MessageTypeReply {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.cbor")

	n, err := RunFilter(path, out, FilterOptions{
		TimeStart: "2026-03-02T09:30:01Z",
		TimeEnd:   "2026-03-02T09:30:03Z",
	})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events in range, got %d", n)
	}
}

func TestFilterOptionsErrors(t *testing.T) {
	for _, opts := range []FilterOptions{
		{Handle: "scanner"},
		{TimeStart: "yesterday"},
		{TimeEnd: "2026-13-01"},
		{Layer: "service"},
		{Direction: "up"},
		{Category: "snapshot"},
	} {
		if _, err := opts.Build(); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
