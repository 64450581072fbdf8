package memory

import (
	"github.com/kailas-cloud/duet/internal/db"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Hash field names of a stored memory record.
const (
	fieldText           = "text"
	fieldConversationID = "conversation_id"
	fieldMetadata       = "metadata"
	fieldEmbedding      = "embedding"
	vectorAlias         = "vector"
)

// buildIndex describes the memory index: exact-match conversation tag plus
// an HNSW cosine vector over the embedding.
func buildIndex(prefix string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(indexName(prefix)).
		Prefix(keyPrefix(prefix)).
		ExactTag(fieldConversationID).
		Vector(fieldEmbedding, db.VectorSpec{
			Dim:         vectorDim,
			Distance:    db.DistanceCosine,
			M:           hnsw.M,
			EFConstruct: hnsw.EFConstruct,
		}).As(vectorAlias).
		Build()
	if err != nil {
		return nil, err //nolint:wrapcheck // caller adds context
	}
	return def, nil
}

func keyPrefix(prefix string) string {
	return prefix + "memory:"
}

func indexName(prefix string) string {
	return prefix + "memory:idx"
}
