package queue

import (
	"encoding/json"
	"fmt"
)

// MessageVersion is the schema version written by this service.
const MessageVersion = 1

// Message announces a completed storage mutation to downstream consumers.
type Message struct {
	EventID    string   `json:"eventId"`
	Action     string   `json:"action"`
	UserID     string   `json:"userId"`
	Files      []string `json:"files,omitempty"`
	Outcome    string   `json:"outcome,omitempty"`
	RequestID  string   `json:"requestId,omitempty"`
	EnqueuedAt string   `json:"enqueuedAt"`
	Version    int      `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
