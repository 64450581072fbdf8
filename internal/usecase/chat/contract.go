package chat

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain/chat"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
	"github.com/kailas-cloud/duet/internal/usecase/assemble"
)

// Gateway invokes one of the two model kinds.
type Gateway interface {
	Invoke(ctx context.Context, kind chat.Model, prompt string) (string, error)
}

// Assembler resolves sources and renders the prompt.
type Assembler interface {
	Build(ctx context.Context, req *chat.Request, sel assemble.Selection) (assemble.Assembled, error)
}

// MemoryStore is the memory surface used for automatic memory.
type MemoryStore interface {
	LatestRecords(ctx context.Context, conversationID string) ([]dommem.Record, error)
	Store(ctx context.Context, turn *dommem.Turn) (dommem.Metadata, error)
}
