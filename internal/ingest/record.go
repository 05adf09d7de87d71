package ingest

import (
	"encoding/json"
	"fmt"
)

// Record is one queue delivery. MessageID is the unit of retry: the
// partial-batch response names failed records by it.
type Record struct {
	MessageID string
	Body      string
}

// Envelope is the topic notification wrapped inside a record body. The
// queue subscribes to the loading topic, so bodies carry the notification
// structure rather than the raw item; only Message is used.
type Envelope struct {
	Type      string `json:"Type,omitempty"`
	MessageID string `json:"MessageId,omitempty"`
	TopicArn  string `json:"TopicArn,omitempty"`
	Message   string `json:"Message"`
}

// DecodeEnvelope parses a record body as a topic notification.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Message == "" {
		return Envelope{}, fmt.Errorf("decode envelope: empty Message field")
	}
	return env, nil
}
