package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/duet/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	s, err := New(KindDocument, "  report.pdf ", "body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "report.pdf" {
		t.Errorf("expected trimmed name, got %q", s.Name)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		src  string
		text string
	}{
		{"unknown kind", Kind("video"), "a", "b"},
		{"empty name", KindLink, " ", "b"},
		{"long name", KindLink, strings.Repeat("x", MaxNameLength+1), "b"},
		{"blank text", KindDocument, "a.txt", "\n\t "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.kind, tc.src, tc.text)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestKind_NotFound(t *testing.T) {
	if !errors.Is(KindDocument.NotFound(), domain.ErrDocumentNotFound) {
		t.Error("document kind should map to ErrDocumentNotFound")
	}
	if !errors.Is(KindLink.NotFound(), domain.ErrLinkNotFound) {
		t.Error("link kind should map to ErrLinkNotFound")
	}
}

func TestNormalizeName_MatchesNew(t *testing.T) {
	for _, raw := range []string{"notes.txt", " notes.txt", "notes.txt\n", "\thttps://example.com "} {
		s, err := New(KindLink, raw, "body")
		if err != nil {
			t.Fatalf("New(%q): %v", raw, err)
		}
		if got := NormalizeName(raw); got != s.Name {
			t.Errorf("NormalizeName(%q) = %q, New stored %q", raw, got, s.Name)
		}
	}
}
