// Package webhook receives, verifies, and parses Mandrill-style inbound
// email webhook requests.
package webhook

import (
	"encoding/json"
	"fmt"
)

// Event is a single inbound webhook event. Msg is kept loosely typed
// because providers vary the shape of nearly every field in it; the
// attachment normalizer is responsible for making sense of the interesting
// parts.
type Event struct {
	Kind string         `json:"event"`
	TS   int64          `json:"ts"`
	Msg  map[string]any `json:"msg"`
}

// ParseEvents parses the JSON array carried in the mandrill_events form
// field into a list of events.
func ParseEvents(data []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse webhook events: %w", err)
	}
	return events, nil
}

// FromEmail returns the sender address, or the empty string.
func (e Event) FromEmail() string {
	return e.str("from_email")
}

// Subject returns the message subject, or the empty string.
func (e Event) Subject() string {
	return e.str("subject")
}

// RawMessage returns the raw RFC 5322 source of the message when the
// provider included one, or the empty string.
func (e Event) RawMessage() string {
	return e.str("raw_msg")
}

// Attachments returns the attachments fragment in whatever shape the
// provider sent it.
func (e Event) Attachments() any {
	if e.Msg == nil {
		return nil
	}
	return e.Msg["attachments"]
}

// Images returns the inline-images fragment, which Mandrill delivers
// separately from attachments but in the same shapes.
func (e Event) Images() any {
	if e.Msg == nil {
		return nil
	}
	return e.Msg["images"]
}

func (e Event) str(key string) string {
	if e.Msg == nil {
		return ""
	}
	s, _ := e.Msg[key].(string)
	return s
}
