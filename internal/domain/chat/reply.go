package chat

import (
	"errors"
	"strings"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Reply is the outcome of one chat turn. Exactly one of Text and Err is meaningful.
type Reply struct {
	Route Route
	Text  string
	Err   error
}

// Failed reports whether the turn ended in an error.
func (r Reply) Failed() bool { return r.Err != nil }

// Response renders the user-facing text: model output, or an "Error: ..." line.
func (r Reply) Response() string {
	if r.Err != nil {
		return ErrorText(r.Err)
	}
	return r.Text
}

// ErrorText converts a failure into the message shown to the user.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return "Error: Empty input"
	case errors.Is(err, domain.ErrInputTooLong):
		return "Error: Input too long"
	case errors.Is(err, domain.ErrInvalidInputType):
		return "Error: Invalid input type"
	case errors.Is(err, domain.ErrSourcesNotFound):
		return "Error: Document or link not found"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return "Error: Document not found"
	case errors.Is(err, domain.ErrLinkNotFound):
		return "Error: Link not found"
	case errors.Is(err, domain.ErrGenerationFailed):
		return "Error: Unable to generate response"
	default:
		return "Error: " + detail(err)
	}
}

// detail strips the sentinel prefix from unreachable failures so the transport cause shows.
func detail(err error) string {
	msg := err.Error()
	if errors.Is(err, domain.ErrUnreachable) {
		if _, cause, ok := strings.Cut(msg, domain.ErrUnreachable.Error()+": "); ok && cause != "" {
			return cause
		}
	}
	return msg
}
