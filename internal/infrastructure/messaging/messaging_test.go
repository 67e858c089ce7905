package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeEncoding(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	env, err := newEnvelope(" submission.recorded ", map[string]any{"event_id": 7}, at)
	if err != nil {
		t.Fatalf("newEnvelope() error = %v", err)
	}
	data, err := env.encode()
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	var decoded struct {
		ID        string         `json:"id"`
		Type      string         `json:"type"`
		Timestamp time.Time      `json:"timestamp"`
		Payload   map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID == "" || decoded.Type != "submission.recorded" {
		t.Fatalf("envelope = %+v", decoded)
	}
	if !decoded.Timestamp.Equal(at) || decoded.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp = %v", decoded.Timestamp)
	}
	if decoded.Payload["event_id"] != float64(7) {
		t.Fatalf("payload = %v", decoded.Payload)
	}
}

func TestEnvelopeRequiresType(t *testing.T) {
	if _, err := newEnvelope("  ", nil, time.Now()); err == nil {
		t.Fatalf("expected error for empty type")
	}
}

func TestSubject(t *testing.T) {
	cases := map[string]string{
		"eventgate":  "eventgate.participant.joined",
		"eventgate.": "eventgate.participant.joined",
		"":           "participant.joined",
	}
	for prefix, want := range cases {
		if got := Subject(prefix, "participant.joined"); got != want {
			t.Fatalf("Subject(%q) = %q, want %q", prefix, got, want)
		}
	}
}

func TestNoopPublisherAcceptsEverything(t *testing.T) {
	if err := (NoopPublisher{}).Publish(context.Background(), "reminders.dispatched", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestNATSPublisherRequiresURL(t *testing.T) {
	if _, err := NewNATSPublisher(context.Background(), " ", "eventgate"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestNATSPublisherWithoutConnectionFails(t *testing.T) {
	var p *NATSPublisher
	if err := p.Publish(context.Background(), "participant.joined", nil); err == nil {
		t.Fatalf("expected error for unconnected publisher")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
