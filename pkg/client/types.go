package client

import "encoding/json"

// ChatRequest is one chat turn. Memories are sent as plain strings.
type ChatRequest struct {
	Message        string   `json:"message"`
	Document       string   `json:"document,omitempty"`
	Link           string   `json:"link,omitempty"`
	Reasoning      bool     `json:"reasoning,omitempty"`
	Memories       []string `json:"memories,omitempty"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// Message is one side of a stored turn. Extra carries any further fields;
// the server stores them as sent and returns them on retrieval.
type Message struct {
	Text   string
	Sender string
	Extra  map[string]any
}

// MarshalJSON flattens Extra next to "text" and "sender".
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["text"] = m.Text
	if m.Sender != "" {
		out["sender"] = m.Sender
	}
	return json.Marshal(out) //nolint:wrapcheck // plain map
}

// UnmarshalJSON collects fields other than "text" and "sender" into Extra.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err //nolint:wrapcheck // decoder error already names the type
	}
	if fields == nil {
		return nil
	}
	msg := Message{}
	if text, ok := fields["text"].(string); ok {
		msg.Text = text
		delete(fields, "text")
	}
	if sender, ok := fields["sender"].(string); ok {
		msg.Sender = sender
		delete(fields, "sender")
	}
	if len(fields) > 0 {
		msg.Extra = fields
	}
	*m = msg
	return nil
}

// Turn is a conversation exchange to remember.
type Turn struct {
	ConversationID string   `json:"conversationId"`
	UserMessage    *Message `json:"userMessage,omitempty"`
	BotMessage     *Message `json:"botMessage,omitempty"`
	Documents      []string `json:"documents,omitempty"`
	Links          []string `json:"links,omitempty"`
}

// Metadata is what the server stored for a turn.
type Metadata struct {
	UserMessage    *Message `json:"userMessage,omitempty"`
	BotMessage     *Message `json:"botMessage,omitempty"`
	Documents      []string `json:"documents"`
	Links          []string `json:"links"`
	Timestamp      string   `json:"timestamp,omitempty"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// Hit is one semantic recall result.
type Hit struct {
	Score    float64  `json:"score"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Source describes a stored document or crawled link.
type Source struct {
	Name       string `json:"name"`
	Characters int    `json:"characters"`
}

// HealthStatus is the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

type chatResponse struct {
	Response string `json:"response"`
}

type conversationBody struct {
	ConversationID string `json:"conversationId"`
}

type storeResponse struct {
	Status   string   `json:"status"`
	Metadata Metadata `json:"metadata"`
}

type searchBody struct {
	ConversationID string `json:"conversationId"`
	Query          string `json:"query"`
	TopK           int    `json:"topK,omitempty"`
}

type linkBody struct {
	URL string `json:"url"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
