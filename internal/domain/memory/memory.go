// Package memory models persisted conversation turns.
package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/duet/internal/domain"
)

// DefaultLatestLimit caps the "latest" retrieval.
const DefaultLatestLimit = 5

// Message is one side of a turn as the client sent it. Only "text" and
// "sender" are interpreted; every other field is kept verbatim and written
// back when the message is encoded.
type Message struct {
	Text   string
	Sender string
	fields map[string]json.RawMessage
}

// UnmarshalJSON requires an object whose "text", when present, is a string.
// null leaves m unchanged.
func (m *Message) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: message must be an object", domain.ErrValidation)
	}
	msg := Message{fields: fields}
	if raw, ok := fields["text"]; ok {
		if err := json.Unmarshal(raw, &msg.Text); err != nil {
			return fmt.Errorf("%w: message text must be a string", domain.ErrValidation)
		}
	}
	if raw, ok := fields["sender"]; ok {
		_ = json.Unmarshal(raw, &msg.Sender)
	}
	*m = msg
	return nil
}

// MarshalJSON writes the original fields with Text and a non-empty Sender applied on top.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.fields)+2)
	for k, v := range m.fields {
		out[k] = v
	}
	out["text"] = m.Text
	if m.Sender != "" {
		out["sender"] = m.Sender
	}
	return json.Marshal(out) //nolint:wrapcheck // values are already valid JSON
}

// Turn is the input of a store operation.
type Turn struct {
	ConversationID string
	UserMessage    *Message
	BotMessage     *Message
	Documents      []string
	Links          []string
}

// Validate enforces the store preconditions.
func (t *Turn) Validate() error {
	if strings.TrimSpace(t.ConversationID) == "" {
		return domain.ErrMissingIdentifier
	}
	if messageText(t.UserMessage) == "" && messageText(t.BotMessage) == "" {
		return fmt.Errorf("%w: user message or bot message is required", domain.ErrValidation)
	}
	return nil
}

// Units returns every non-empty text of the turn in storage order:
// user message, bot message, documents, links.
func (t *Turn) Units() []string {
	units := make([]string, 0, 2+len(t.Documents)+len(t.Links))
	for _, s := range []string{messageText(t.UserMessage), messageText(t.BotMessage)} {
		if s != "" {
			units = append(units, s)
		}
	}
	for _, s := range t.Documents {
		if s != "" {
			units = append(units, s)
		}
	}
	for _, s := range t.Links {
		if s != "" {
			units = append(units, s)
		}
	}
	return units
}

func messageText(m *Message) string {
	if m == nil {
		return ""
	}
	return m.Text
}

// Metadata is the object shared by every record written for one turn.
// All fields are optional on read: unreadable stored metadata decodes to the zero value.
// Documents and links always encode as arrays.
type Metadata struct {
	UserMessage    *Message `json:"userMessage,omitempty"`
	BotMessage     *Message `json:"botMessage,omitempty"`
	Documents      []string `json:"documents"`
	Links          []string `json:"links"`
	Timestamp      string   `json:"timestamp,omitempty"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// MarshalJSON encodes nil documents and links as [].
func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	p := plain(m)
	if p.Documents == nil {
		p.Documents = []string{}
	}
	if p.Links == nil {
		p.Links = []string{}
	}
	return json.Marshal(p) //nolint:wrapcheck // plain has no custom encoders
}

// NewMetadata stamps a turn with the given instant in UTC.
func NewMetadata(t *Turn, now time.Time) Metadata {
	return Metadata{
		UserMessage:    t.UserMessage,
		BotMessage:     t.BotMessage,
		Documents:      nonNil(t.Documents),
		Links:          nonNil(t.Links),
		Timestamp:      now.UTC().Format(time.RFC3339Nano),
		ConversationID: t.ConversationID,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// timestampLayouts accepts RFC 3339 and zone-less ISO-8601 stamps (read as UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Time parses the timestamp. ok is false when it is missing or unparseable.
func (m *Metadata) Time() (t time.Time, ok bool) {
	if m.Timestamp == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, m.Timestamp); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// Record is one stored text unit.
type Record struct {
	Text           string
	ConversationID string
	Metadata       Metadata
	// Vector is the text's embedding. Set on write, never populated on read.
	Vector []float32
	// Score is the similarity to the query for semantic recall, zero otherwise.
	Score float64
}
