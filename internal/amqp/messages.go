package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageTypeDatasetUpdated is set as the AMQP type of reload messages.
const MessageTypeDatasetUpdated = "dataset.updated"

// DatasetUpdatedMessage announces that the backing dataset changed. It
// carries no records; consumers reload from their configured source.
type DatasetUpdatedMessage struct {
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	ImportID  int64     `json:"import_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetUpdatedMessage creates a message stamped with the current time.
func NewDatasetUpdatedMessage(source string, rows int, importID int64) *DatasetUpdatedMessage {
	return &DatasetUpdatedMessage{
		Source:    source,
		Rows:      rows,
		ImportID:  importID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks the fields a consumer relies on.
func (m *DatasetUpdatedMessage) Validate() error {
	if m.Source == "" {
		return errors.New("message source is empty")
	}
	if m.Rows < 0 {
		return errors.New("message rows is negative")
	}
	return nil
}

// DatasetUpdatedMessageFromJSON parses and validates a message.
func DatasetUpdatedMessageFromJSON(data []byte) (*DatasetUpdatedMessage, error) {
	var msg DatasetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
