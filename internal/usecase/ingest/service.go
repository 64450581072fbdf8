// Package ingest turns uploads and crawled pages into named text sources.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain"
	"github.com/kailas-cloud/duet/internal/domain/source"
	"github.com/kailas-cloud/duet/internal/logger"
)

// DefaultMaxUploadBytes bounds an uploaded file.
const DefaultMaxUploadBytes = 16 << 20

// Result describes a stored source.
type Result struct {
	Name       string
	Characters int
}

// Service stores documents and links.
type Service struct {
	store    SourceStore
	fetcher  Fetcher
	maxBytes int64
}

// New creates a Service. fetcher may be nil, which disables crawling.
func New(store SourceStore, fetcher Fetcher) *Service {
	return &Service{store: store, fetcher: fetcher, maxBytes: DefaultMaxUploadBytes}
}

// WithMaxUploadBytes overrides the upload size limit.
func (s *Service) WithMaxUploadBytes(n int64) *Service {
	if n > 0 {
		s.maxBytes = n
	}
	return s
}

// MaxUploadBytes returns the upload size limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxBytes }

// Upload extracts text from a file and stores it under the file's base name.
// Re-uploading a name replaces its text.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (Result, error) {
	if int64(len(data)) > s.maxBytes {
		return Result{}, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, s.maxBytes)
	}
	name := filepath.Base(filepath.Clean("/" + fileName))

	text, err := Extract(name, data)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", name, err)
	}
	return s.put(ctx, source.KindDocument, name, text)
}

// Crawl fetches a page and stores its text under the URL.
func (s *Service) Crawl(ctx context.Context, url string) (Result, error) {
	if s.fetcher == nil {
		return Result{}, fmt.Errorf("%w: crawling is disabled", domain.ErrValidation)
	}
	text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("crawl: %w", err)
	}
	return s.put(ctx, source.KindLink, url, text)
}

// List returns the stored names of a kind.
func (s *Service) List(ctx context.Context, kind source.Kind) ([]string, error) {
	names, err := s.store.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	return names, nil
}

func (s *Service) put(ctx context.Context, kind source.Kind, name, text string) (Result, error) {
	src, err := source.New(kind, name, text)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Put(ctx, src); err != nil {
		return Result{}, fmt.Errorf("store %s: %w", kind, err)
	}

	res := Result{Name: src.Name, Characters: utf8.RuneCountInString(src.Text)}
	logger.FromContext(ctx).Info("source stored",
		zap.String("kind", string(kind)),
		zap.String("name", res.Name),
		zap.Int("characters", res.Characters))
	return res, nil
}
