package client

import (
	"fmt"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrNotFound               = domain.ErrNotFound
	ErrMissingIdentifier      = domain.ErrMissingIdentifier
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrFetchFailed            = domain.ErrFetchFailed
)

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("duet: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("duet: %s (status %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap maps the error code onto its sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "validation_failed", "bad_request", "payload_too_large":
		return ErrValidation
	case "missing_identifier":
		return ErrMissingIdentifier
	case "not_found":
		return ErrNotFound
	case "unsupported_format":
		return ErrUnsupportedFormat
	case "embedding_provider_error":
		return ErrEmbeddingProviderError
	case "fetch_failed":
		return ErrFetchFailed
	default:
		return nil
	}
}
