package memory

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
)

// Repository persists memory records behind a vector index.
type Repository interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, records []dommem.Record) error
	ListByConversation(ctx context.Context, conversationID string) ([]dommem.Record, error)
	SearchSimilar(ctx context.Context, conversationID string, vector []float32, k int) ([]dommem.Record, error)
}

// Embedder vectorizes text. Stored units and recall queries may use different instructions.
type Embedder = domain.Embedder
