package messaging

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventgate/internal/errs"
)

// Envelope is the wire shape of every published engine event.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func newEnvelope(eventType string, payload any, now time.Time) (Envelope, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return Envelope{}, errors.New("event type is required")
	}
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: now.UTC(),
		Payload:   payload,
	}, nil
}

func (e Envelope) encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errs.Wrapf(err, "encode %s envelope", e.Type)
	}
	return data, nil
}

// Subject joins prefix and event type into a NATS subject.
func Subject(prefix string, eventType string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
