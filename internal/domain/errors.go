package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed or out-of-bounds request.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyInput signals an empty chat message.
	ErrEmptyInput = fmt.Errorf("%w: empty input", ErrValidation)
	// ErrInputTooLong signals a chat message above the length limit.
	ErrInputTooLong = fmt.Errorf("%w: input too long", ErrValidation)
	// ErrInvalidInputType signals a chat message that is not text.
	ErrInvalidInputType = fmt.Errorf("%w: invalid input type", ErrValidation)

	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a document name absent from the document store.
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	// ErrLinkNotFound signals a link absent from the link store.
	ErrLinkNotFound = fmt.Errorf("link %w", ErrNotFound)
	// ErrSourcesNotFound signals that a combined document+link lookup did not fully resolve.
	ErrSourcesNotFound = fmt.Errorf("document or link %w", ErrNotFound)

	// ErrMissingIdentifier signals a memory operation without a conversation id.
	ErrMissingIdentifier = errors.New("conversation id is required")

	// ErrUnreachable signals a transport-level failure talking to a model provider.
	ErrUnreachable = errors.New("model provider unreachable")
	// ErrGenerationFailed signals a non-success status from a model provider.
	ErrGenerationFailed = errors.New("unable to generate response")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnsupportedFormat signals an upload whose format cannot be turned into text.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrFetchFailed signals a crawl target that could not be downloaded.
	ErrFetchFailed = errors.New("fetch failed")
)
