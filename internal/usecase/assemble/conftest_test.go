package assemble

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain/source"
)

type mockSources struct {
	getFn func(ctx context.Context, kind source.Kind, name string) (source.Source, error)
	calls []source.Kind
}

func (m *mockSources) Get(ctx context.Context, kind source.Kind, name string) (source.Source, error) {
	m.calls = append(m.calls, kind)
	return m.getFn(ctx, kind, name)
}

// staticSources serves from two maps and reports kind.NotFound() for missing names.
func staticSources(docs, links map[string]string) *mockSources {
	return &mockSources{getFn: func(_ context.Context, kind source.Kind, name string) (source.Source, error) {
		m := docs
		if kind == source.KindLink {
			m = links
		}
		text, ok := m[name]
		if !ok {
			return source.Source{}, kind.NotFound()
		}
		return source.Source{Kind: kind, Name: name, Text: text}, nil
	}}
}
