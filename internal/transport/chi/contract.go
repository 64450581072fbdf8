package chi

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain/chat"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
	"github.com/kailas-cloud/duet/internal/domain/source"
	healthuc "github.com/kailas-cloud/duet/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/duet/internal/usecase/ingest"
	memoryuc "github.com/kailas-cloud/duet/internal/usecase/memory"
)

// ChatService answers chat turns.
type ChatService interface {
	Respond(ctx context.Context, req chat.Request) chat.Reply
}

// MemoryService stores and reads conversation memory.
type MemoryService interface {
	Store(ctx context.Context, turn *dommem.Turn) (dommem.Metadata, error)
	RetrieveAll(ctx context.Context, conversationID string) ([]dommem.Metadata, error)
	RetrieveLatest(ctx context.Context, conversationID string) ([]dommem.Metadata, error)
	Recall(ctx context.Context, conversationID, query string, k int) ([]memoryuc.Match, error)
}

// IngestService stores uploaded documents and crawled links.
type IngestService interface {
	Upload(ctx context.Context, fileName string, data []byte) (ingestuc.Result, error)
	Crawl(ctx context.Context, url string) (ingestuc.Result, error)
	List(ctx context.Context, kind source.Kind) ([]string, error)
	MaxUploadBytes() int64
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
