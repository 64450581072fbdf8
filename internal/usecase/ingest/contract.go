package ingest

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain/source"
)

// SourceStore persists extracted sources.
type SourceStore interface {
	Put(ctx context.Context, src source.Source) error
	List(ctx context.Context, kind source.Kind) ([]string, error)
}

// Fetcher downloads a URL as plain text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
