// Package memory persists conversation records in a vector-indexed hash store.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/duet/internal/db"
	"github.com/kailas-cloud/duet/internal/domain"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
)

const listPageSize = 100

// store is the consumer interface for memory records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/memory.Repository.
type Repo struct {
	store     store
	prefix    string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a memory repository. Keys live under prefix (domain.DefaultKeyPrefix when empty).
func New(s store, prefix string, vectorDim int) *Repo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the memory index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := indexName(r.prefix)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.prefix, r.vectorDim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// lost a race with another instance
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Upsert writes records in one round-trip. A record whose text is already stored replaces it.
func (r *Repo) Upsert(ctx context.Context, records []dommem.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(records))
	for i := range records {
		fields, err := buildHashFields(&records[i])
		if err != nil {
			return err
		}
		items = append(items, db.HashSetItem{Key: recordKey(r.prefix, records[i].Text), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset memories: %w", err)
	}
	return nil
}

// ListByConversation returns every record tagged with conversationID, in index order.
func (r *Repo) ListByConversation(ctx context.Context, conversationID string) ([]dommem.Record, error) {
	var records []dommem.Record
	for offset := 0; ; offset += listPageSize {
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    indexName(r.prefix),
			Tags:         []db.TagFilter{{Field: fieldConversationID, Value: conversationID}},
			Offset:       offset,
			Limit:        listPageSize,
			ReturnFields: []string{fieldText, fieldConversationID, fieldMetadata},
		})
		if err != nil {
			return nil, fmt.Errorf("search list %s: %w", conversationID, err)
		}
		if res == nil {
			break
		}
		for _, e := range res.Entries {
			records = append(records, parseHashFields(e.Fields, 0))
		}
		if len(res.Entries) < listPageSize || offset+listPageSize >= res.Total {
			break
		}
	}
	return records, nil
}

// SearchSimilar returns up to k records closest to vector, best first.
// An empty conversationID searches across all conversations.
func (r *Repo) SearchSimilar(
	ctx context.Context, conversationID string, vector []float32, k int,
) ([]dommem.Record, error) {
	q := &db.KNNQuery{
		IndexName:    indexName(r.prefix),
		VectorField:  vectorAlias,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldText, fieldConversationID, fieldMetadata},
	}
	if conversationID != "" {
		q.Tags = []db.TagFilter{{Field: fieldConversationID, Value: conversationID}}
	}

	res, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	records := make([]dommem.Record, 0, len(res.Entries))
	for _, e := range res.Entries {
		records = append(records, parseHashFields(e.Fields, e.Score))
	}
	return records, nil
}
