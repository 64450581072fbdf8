// Package memory stores conversation turns as embedded records and reads them back
// by conversation, by recency or by similarity.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
	"github.com/kailas-cloud/duet/internal/logger"
	"github.com/kailas-cloud/duet/internal/metrics"
)

// Operation labels for metrics.MemoryOperationsTotal.
const (
	opStore    = "store"
	opRetrieve = "retrieve"
	opLatest   = "latest"
	opRecall   = "recall"
)

// DefaultTopK is the recall result size when the caller passes k <= 0.
const DefaultTopK = 5

// MaxTopK caps a recall request.
const MaxTopK = 100

// Match is one recall hit.
type Match struct {
	Score    float64
	Text     string
	Metadata dommem.Metadata
}

// Service implements the memory operations.
type Service struct {
	repo        Repository
	docEmbedder Embedder
	qryEmbedder Embedder
	latestLimit int
	topK        int
	now         func() time.Time
}

// New creates a Service. Both stored units and queries use embedder until
// WithQueryEmbedder sets a separate one.
func New(repo Repository, embedder Embedder) *Service {
	return &Service{
		repo:        repo,
		docEmbedder: embedder,
		qryEmbedder: embedder,
		latestLimit: dommem.DefaultLatestLimit,
		topK:        DefaultTopK,
		now:         time.Now,
	}
}

// WithQueryEmbedder sets the embedder used for recall queries.
func (s *Service) WithQueryEmbedder(e Embedder) *Service {
	if e != nil {
		s.qryEmbedder = e
	}
	return s
}

// WithLimits overrides the latest limit and the default recall size.
func (s *Service) WithLimits(latest, topK int) *Service {
	if latest > 0 {
		s.latestLimit = latest
	}
	if topK > 0 {
		s.topK = topK
	}
	return s
}

// Init creates the backing index if needed.
func (s *Service) Init(ctx context.Context) error {
	if err := s.repo.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure memory index: %w", err)
	}
	return nil
}

// Store embeds every non-empty unit of the turn and upserts one record per unit,
// all sharing one metadata object stamped now (UTC). Identical texts within a turn
// collapse to one record.
func (s *Service) Store(ctx context.Context, turn *dommem.Turn) (dommem.Metadata, error) {
	md, err := s.store(ctx, turn)
	s.observe(opStore, err)
	return md, err
}

func (s *Service) store(ctx context.Context, turn *dommem.Turn) (dommem.Metadata, error) {
	if err := turn.Validate(); err != nil {
		return dommem.Metadata{}, err
	}
	md := dommem.NewMetadata(turn, s.now())
	units := lo.Uniq(turn.Units())

	records := make([]dommem.Record, 0, len(units))
	for _, text := range units {
		res, err := s.docEmbedder.Embed(ctx, text)
		if err != nil {
			return dommem.Metadata{}, fmt.Errorf("embed memory unit: %w", err)
		}
		records = append(records, dommem.Record{
			Text:           text,
			ConversationID: turn.ConversationID,
			Metadata:       md,
			Vector:         res.Embedding,
		})
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return dommem.Metadata{}, fmt.Errorf("upsert memory: %w", err)
	}

	logger.FromContext(ctx).Debug("memory stored",
		zap.String("conversation_id", turn.ConversationID),
		zap.Int("records", len(records)))
	return md, nil
}

// RetrieveAll returns the metadata of every record in the conversation.
func (s *Service) RetrieveAll(ctx context.Context, conversationID string) ([]dommem.Metadata, error) {
	records, err := s.list(ctx, conversationID)
	s.observe(opRetrieve, err)
	if err != nil {
		return nil, err
	}
	return metadataOf(records), nil
}

// RetrieveLatest returns at most the configured limit of metadata, newest first;
// records with an unreadable timestamp come last.
func (s *Service) RetrieveLatest(ctx context.Context, conversationID string) ([]dommem.Metadata, error) {
	records, err := s.LatestRecords(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return metadataOf(records), nil
}

// LatestRecords is RetrieveLatest keeping the stored texts.
func (s *Service) LatestRecords(ctx context.Context, conversationID string) ([]dommem.Record, error) {
	records, err := s.list(ctx, conversationID)
	s.observe(opLatest, err)
	if err != nil {
		return nil, err
	}
	return dommem.Latest(records, s.latestLimit), nil
}

// Recall embeds query and returns the k most similar records of the conversation.
func (s *Service) Recall(ctx context.Context, conversationID, query string, k int) ([]Match, error) {
	matches, err := s.recall(ctx, conversationID, query, k)
	s.observe(opRecall, err)
	return matches, err
}

func (s *Service) recall(ctx context.Context, conversationID, query string, k int) ([]Match, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, domain.ErrMissingIdentifier
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if k <= 0 {
		k = s.topK
	}
	if k > MaxTopK {
		return nil, fmt.Errorf("%w: topK must be at most %d", domain.ErrValidation, MaxTopK)
	}

	res, err := s.qryEmbedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	records, err := s.repo.SearchSimilar(ctx, conversationID, res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}

	return lo.Map(records, func(r dommem.Record, _ int) Match {
		return Match{Score: r.Score, Text: r.Text, Metadata: r.Metadata}
	}), nil
}

func (s *Service) list(ctx context.Context, conversationID string) ([]dommem.Record, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, domain.ErrMissingIdentifier
	}
	records, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list memory: %w", err)
	}
	return records, nil
}

func (s *Service) observe(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MemoryOperationsTotal.WithLabelValues(op, status).Inc()
}

func metadataOf(records []dommem.Record) []dommem.Metadata {
	return lo.Map(records, func(r dommem.Record, _ int) dommem.Metadata { return r.Metadata })
}
