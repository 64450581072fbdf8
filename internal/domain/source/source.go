// Package source describes the named text blobs the assistant can consult.
package source

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Kind separates the two text stores.
type Kind string

const (
	// KindDocument is an uploaded file's extracted text.
	KindDocument Kind = "document"
	// KindLink is a crawled web page's extracted text.
	KindLink Kind = "link"
)

// MaxNameLength bounds a source name (file name or URL).
const MaxNameLength = 2048

// NotFound returns the sentinel for a missing source of this kind.
func (k Kind) NotFound() error {
	if k == KindLink {
		return domain.ErrLinkNotFound
	}
	return domain.ErrDocumentNotFound
}

// NormalizeName is the canonical form of a source name, applied both when a
// source is stored and when it is looked up.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Source is a named, already-extracted text blob.
type Source struct {
	Kind Kind
	Name string
	Text string
}

// New validates and creates a Source.
func New(kind Kind, name, text string) (Source, error) {
	if kind != KindDocument && kind != KindLink {
		return Source{}, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, kind)
	}
	name = NormalizeName(name)
	if name == "" {
		return Source{}, fmt.Errorf("%w: source name is required", domain.ErrValidation)
	}
	if len(name) > MaxNameLength {
		return Source{}, fmt.Errorf("%w: source name too long (max %d)", domain.ErrValidation, MaxNameLength)
	}
	if strings.TrimSpace(text) == "" {
		return Source{}, fmt.Errorf("%w: %s %q has no text", domain.ErrValidation, kind, name)
	}
	return Source{Kind: kind, Name: name, Text: text}, nil
}
