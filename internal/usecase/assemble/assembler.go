// Package assemble builds the single prompt handed to the simple model
// from the user message, relevant memories and selected sources.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/kailas-cloud/duet/internal/domain"
	"github.com/kailas-cloud/duet/internal/domain/chat"
	"github.com/kailas-cloud/duet/internal/domain/source"
)

// Block labels.
const (
	DocumentLabel = "Document Content:"
	LinkLabel     = "Link Content:"
)

const blockSeparator = "\n\n"

// Selection picks which of the request's sources a route consults.
type Selection uint8

// Selection flags.
const (
	SelectDocument Selection = 1 << iota
	SelectLink
)

// Has reports whether s includes flag.
func (s Selection) Has(flag Selection) bool { return s&flag != 0 }

// Relevance decides whether a memory belongs in the prompt for message.
type Relevance func(message, memory string) bool

// AllRelevant keeps every memory.
func AllRelevant(_, _ string) bool { return true }

// Assembled is a built prompt plus the source texts it consulted.
type Assembled struct {
	Prompt    string
	Documents []string
	Links     []string
}

// Assembler resolves sources and renders the prompt.
type Assembler struct {
	sources   SourceReader
	relevance Relevance
}

// New creates an Assembler that treats every memory as relevant.
func New(sources SourceReader) *Assembler {
	return &Assembler{sources: sources, relevance: AllRelevant}
}

// WithRelevance replaces the memory relevance predicate.
func (a *Assembler) WithRelevance(fn Relevance) *Assembler {
	if fn != nil {
		a.relevance = fn
	}
	return a
}

// Build resolves the selected sources and renders the prompt.
// When both a document and a link are selected and set, both must resolve or
// the result is domain.ErrSourcesNotFound. A single missing source yields its
// own kind's not-found error.
func (a *Assembler) Build(ctx context.Context, req *chat.Request, sel Selection) (Assembled, error) {
	wantDoc := sel.Has(SelectDocument) && req.HasDocument()
	wantLink := sel.Has(SelectLink) && req.HasLink()

	var out Assembled
	var docText, linkText string

	if wantDoc {
		src, err := a.sources.Get(ctx, source.KindDocument, req.DocumentName)
		if err != nil {
			return Assembled{}, a.notFound(err, wantLink)
		}
		docText = src.Text
		out.Documents = []string{docText}
	}
	if wantLink {
		src, err := a.sources.Get(ctx, source.KindLink, req.Link)
		if err != nil {
			return Assembled{}, a.notFound(err, wantDoc)
		}
		linkText = src.Text
		out.Links = []string{linkText}
	}

	out.Prompt = Compose(req.Message, a.relevantMemories(req), docText, linkText)
	return out, nil
}

func (a *Assembler) notFound(err error, combined bool) error {
	if combined && errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("resolve sources: %w", domain.ErrSourcesNotFound)
	}
	return fmt.Errorf("resolve source: %w", err)
}

func (a *Assembler) relevantMemories(req *chat.Request) []string {
	return lo.Filter(req.Memories, func(m string, _ int) bool {
		return strings.TrimSpace(m) != "" && a.relevance(req.Message, m)
	})
}

// Compose renders message, memories, document and link blocks in that order.
// Empty parts are skipped.
func Compose(message string, memories []string, document, link string) string {
	var b strings.Builder
	b.WriteString(message)
	if len(memories) > 0 {
		b.WriteString(blockSeparator)
		b.WriteString(strings.Join(memories, "\n"))
	}
	if document != "" {
		b.WriteString(blockSeparator + DocumentLabel + "\n")
		b.WriteString(document)
	}
	if link != "" {
		b.WriteString(blockSeparator + LinkLabel + "\n")
		b.WriteString(link)
	}
	return b.String()
}
