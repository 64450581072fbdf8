// Package embcache keeps computed embeddings in Redis so that re-stored
// memories and repeated queries skip the provider.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/db"
	"github.com/kailas-cloud/duet/internal/domain"
)

const keySegment = "emb_cache:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps a domain.Embedder. Vectors are stored as packed
// little-endian float32 under sha256(text). The cache is best effort: store
// failures are logged and the provider result is returned regardless.
type CachedEmbedder struct {
	inner    domain.Embedder
	store    store
	prefix   string
	ttl      time.Duration
	outcomes *prometheus.CounterVec
	logger   *zap.Logger
}

// New wraps inner. outcomes is labelled by "result" (hit or miss) and may be nil.
func New(
	inner domain.Embedder,
	s store,
	outcomes *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:    inner,
		store:    s,
		prefix:   domain.DefaultKeyPrefix + keySegment,
		outcomes: outcomes,
		logger:   logger,
	}
}

// WithNamespace places keys under prefix and, when given, the model name,
// so vectors from a previously configured model are never served.
func (c *CachedEmbedder) WithNamespace(prefix, model string) *CachedEmbedder {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	c.prefix = prefix + keySegment
	if model != "" {
		c.prefix += model + ":"
	}
	return c
}

// WithTTL sets the entry lifetime. Zero keeps entries until evicted.
func (c *CachedEmbedder) WithTTL(ttl time.Duration) *CachedEmbedder {
	c.ttl = ttl
	return c
}

// Embed serves text from the cache when possible. A hit reports zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(res.Embedding) > 0 {
		c.save(ctx, key, res.Embedding)
	}
	return res, nil
}

// HealthCheck reports the wrapped provider's health. The cache itself is not probed.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := c.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// lookup treats a missing, empty or corrupt entry as a miss.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(raw) == 0:
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		c.logger.Warn("embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	raw := encodeVector(vec)
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, raw, c.ttl)
	} else {
		err = c.store.Set(ctx, key, raw)
	}
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(result).Inc()
}

func encodeVector(vec []float32) []byte {
	out := make([]byte, 0, 4*len(vec))
	for _, f := range vec {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached vector is %d bytes, not a whole number of float32s", len(raw))
	}
	vec := make([]float32, 0, len(raw)/4)
	for b := raw; len(b) > 0; b = b[4:] {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return vec, nil
}
