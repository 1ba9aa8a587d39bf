package amqp

import (
	"encoding/json"
	"time"
)

// MonthDirtyMessage marks a month whose projection changed and should be
// re-exported. It carries only the month and the snapshot revision; the
// worker rebuilds the summary from storage so a stale message is harmless.
type MonthDirtyMessage struct {
	Month     string    `json:"month"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMonthDirtyMessage creates a dirty-month message for the given revision
func NewMonthDirtyMessage(month string, revision int64) *MonthDirtyMessage {
	return &MonthDirtyMessage{
		Month:     month,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthDirtyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthDirtyMessageFromJSON creates a message from JSON bytes
func MonthDirtyMessageFromJSON(data []byte) (*MonthDirtyMessage, error) {
	var msg MonthDirtyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
