package assemble

import (
	"context"

	"github.com/kailas-cloud/duet/internal/domain/source"
)

// SourceReader looks up extracted text by name. A missing name yields kind.NotFound().
type SourceReader interface {
	Get(ctx context.Context, kind source.Kind, name string) (source.Source, error)
}
