package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestChangeMessageJSONRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	msg := NewChangeMessage("added", "tx-1", 7, at)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Action != "added" || got.ID != "tx-1" || got.Count != 7 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("OccurredAt = %v, want %v", got.OccurredAt, at)
	}
}

func TestChangeMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte("{broken")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestChangeMessageOmitsEmptyID(t *testing.T) {
	msg := NewChangeMessage("cleared", "", 0, time.Now())
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Fatalf("cleared message should omit id: %s", data)
	}
}
