package memory

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
)

// buildHashFields flattens a record into HSET fields.
func buildHashFields(rec *dommem.Record) (map[string]string, error) {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldText:           rec.Text,
		fieldConversationID: rec.ConversationID,
		fieldMetadata:       string(meta),
		fieldEmbedding:      vectorToBytes(rec.Vector),
	}, nil
}

// parseHashFields rebuilds a record from search fields.
// Unreadable metadata yields the zero Metadata rather than an error.
func parseHashFields(m map[string]string, score float64) dommem.Record {
	rec := dommem.Record{
		Text:           m[fieldText],
		ConversationID: m[fieldConversationID],
		Score:          score,
	}
	if raw := m[fieldMetadata]; raw != "" {
		var meta dommem.Metadata
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			rec.Metadata = meta
		}
	}
	return rec
}

// recordKey derives the storage key from the text alone, so storing the same
// text again overwrites the earlier record.
func recordKey(prefix, text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix(prefix) + hex.EncodeToString(h[:])
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
