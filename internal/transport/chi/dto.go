package chi

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/duet/internal/domain/chat"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeMissingIdentifier      ErrorCode = "missing_identifier"
	CodeNotFound               ErrorCode = "not_found"
	CodeUnsupportedFormat      ErrorCode = "unsupported_format"
	CodePayloadTooLarge        ErrorCode = "payload_too_large"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeFetchFailed            ErrorCode = "fetch_failed"
	CodeMethodNotAllowed       ErrorCode = "method_not_allowed"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-chat error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the POST /chat body. Message stays raw so a non-string value
// can be reported as an invalid input type instead of a decode failure.
type ChatRequest struct {
	Message        json.RawMessage   `json:"message"`
	Document       string            `json:"document,omitempty"`
	Link           string            `json:"link,omitempty"`
	Reasoning      bool              `json:"reasoning,omitempty"`
	Memories       []json.RawMessage `json:"memories,omitempty"`
	ConversationID string            `json:"conversationId,omitempty"`
}

// ChatResponse is the POST /chat result. Response is always present.
type ChatResponse struct {
	Response string `json:"response"`
}

// MemoryStoreRequest is the POST /memories body.
type MemoryStoreRequest struct {
	UserMessage    *dommem.Message `json:"userMessage,omitempty"`
	BotMessage     *dommem.Message `json:"botMessage,omitempty"`
	Documents      []string        `json:"documents,omitempty"`
	Links          []string        `json:"links,omitempty"`
	ConversationID string          `json:"conversationId"`
}

// MemoryStoreResponse confirms a store and echoes the metadata written.
type MemoryStoreResponse struct {
	Status   string          `json:"status"`
	Metadata dommem.Metadata `json:"metadata"`
}

// ConversationRequest carries a conversation id.
type ConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

// ConversationResponse is the POST /conversations result.
type ConversationResponse struct {
	ConversationID string `json:"conversationId"`
}

// MemorySearchRequest is the POST /memories/search body.
type MemorySearchRequest struct {
	ConversationID string `json:"conversationId"`
	Query          string `json:"query"`
	TopK           int    `json:"topK,omitempty"`
}

// MemorySearchHit is one recall result.
type MemorySearchHit struct {
	Score    float64         `json:"score"`
	Text     string          `json:"text"`
	Metadata dommem.Metadata `json:"metadata"`
}

// LinkRequest is the POST /links body.
type LinkRequest struct {
	URL string `json:"url"`
}

// SourceResponse describes a stored document or link.
type SourceResponse struct {
	Name       string `json:"name"`
	Characters int    `json:"characters"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

var jsonNull = []byte("null")

// toDomain maps the wire request onto chat.Request.
func (r *ChatRequest) toDomain() chat.Request {
	req := chat.Request{
		DocumentName:   r.Document,
		Link:           r.Link,
		Reasoning:      r.Reasoning,
		ConversationID: r.ConversationID,
		Textual:        true,
	}

	raw := bytes.TrimSpace(r.Message)
	if len(raw) > 0 && !bytes.Equal(raw, jsonNull) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			req.Message = s
		} else {
			req.Textual = false
			req.Message = string(raw)
		}
	}

	for _, m := range r.Memories {
		if text := memoryText(m); text != "" {
			req.Memories = append(req.Memories, text)
		}
	}
	return req
}

// memoryText renders a memory entry: strings as-is, anything else as compact JSON.
func memoryText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func (r *MemoryStoreRequest) toDomain() *dommem.Turn {
	return &dommem.Turn{
		ConversationID: r.ConversationID,
		UserMessage:    r.UserMessage,
		BotMessage:     r.BotMessage,
		Documents:      r.Documents,
		Links:          r.Links,
	}
}
