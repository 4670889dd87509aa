package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces one completed ledger mutation. It carries only the
// action and the affected id; the worker reads the current ledger from
// storage when it needs the data.
type ChangeMessage struct {
	Action     string    `json:"action"`
	ID         string    `json:"id,omitempty"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewChangeMessage(action, id string, count int, occurredAt time.Time) *ChangeMessage {
	return &ChangeMessage{
		Action:     action,
		ID:         id,
		Count:      count,
		OccurredAt: occurredAt,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
