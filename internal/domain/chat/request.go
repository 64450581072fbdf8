// Package chat holds the chat turn model and the dispatch decision table.
package chat

import "unicode/utf8"

// DefaultMaxMessageChars bounds the user message length, counted in characters.
const DefaultMaxMessageChars = 512

// FarewellCommand ends a conversation. Compared case-insensitively.
const FarewellCommand = "/bye"

// Request is one inbound chat turn.
//
// Textual is false when the caller sent something other than a string in place of the
// message; Message then holds its raw encoding so the length rule still applies.
type Request struct {
	Message        string
	Textual        bool
	DocumentName   string
	Link           string
	Reasoning      bool
	Memories       []string
	ConversationID string
}

// NewTextRequest builds a Request around a plain text message.
func NewTextRequest(message string) Request {
	return Request{Message: message, Textual: true}
}

// HasDocument reports whether a document is selected.
func (r *Request) HasDocument() bool { return r.DocumentName != "" }

// HasLink reports whether a link is selected.
func (r *Request) HasLink() bool { return r.Link != "" }

// Length returns the message length in characters.
func (r *Request) Length() int { return utf8.RuneCountInString(r.Message) }
