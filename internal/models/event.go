package models

import (
	"encoding/json"
	"time"
)

// Event is a single received webhook payload. Events are immutable once
// stored: Payload and Raw must not be modified by readers.
type Event struct {
	ID         int64
	Payload    map[string]any
	Raw        json.RawMessage
	ReceivedAt time.Time
}

type eventJSON struct {
	ID         int64           `json:"id"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"received_at"`
}

// MarshalJSON emits the payload exactly as it was received.
func (e Event) MarshalJSON() ([]byte, error) {
	data := e.Raw
	if len(data) == 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(eventJSON{ID: e.ID, Data: data, ReceivedAt: e.ReceivedAt})
}

// Field returns the payload value for key, or "" when absent.
func (e Event) Field(key string) string {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
