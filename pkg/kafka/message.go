package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is one event bound for the booking topic. Key selects the
// partition: keying by booking id keeps one booking's lifecycle in
// order.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderSchemaVersion = "schema-version"
)

const schemaVersion = "1"

// NewEvent builds a message envelope for a booking lifecycle event.
// The payload is JSON-encoded; headers identify the event for
// downstream consumers without forcing them to parse the body.
func NewEvent(eventType, source, key string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode event payload: %w", err)
	}

	now := time.Now().UTC()
	return Message{
		Key:       key,
		Value:     value,
		Timestamp: now,
		Headers: map[string]string{
			HeaderEventID:       uuid.NewString(),
			HeaderEventType:     eventType,
			HeaderSource:        source,
			HeaderTimestamp:     now.Format(time.RFC3339),
			HeaderSchemaVersion: schemaVersion,
		},
	}, nil
}
