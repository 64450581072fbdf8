package ingest

import (
	"context"
	"sort"

	"github.com/kailas-cloud/duet/internal/domain/source"
)

type mockStore struct {
	putFn  func(ctx context.Context, src source.Source) error
	listFn func(ctx context.Context, kind source.Kind) ([]string, error)
	put    []source.Source
}

func (m *mockStore) Put(ctx context.Context, src source.Source) error {
	m.put = append(m.put, src)
	if m.putFn != nil {
		return m.putFn(ctx, src)
	}
	return nil
}

func (m *mockStore) List(ctx context.Context, kind source.Kind) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, kind)
	}
	var names []string
	for _, s := range m.put {
		if s.Kind == kind {
			names = append(names, s.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type mockFetcher struct {
	fetchFn func(ctx context.Context, url string) (string, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return m.fetchFn(ctx, url)
}
