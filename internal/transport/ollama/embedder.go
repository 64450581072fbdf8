package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain"
	"github.com/kailas-cloud/duet/internal/metrics"
)

const providerName = "ollama"

// Embedder calls POST /api/embeddings.
type Embedder struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(baseURL, model string, timeout time.Duration, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client: newRestyClient(baseURL, timeout),
		model:  model,
		logger: logger,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements domain.Embedder. Ollama reports no token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(&embedRequest{Model: e.model, Prompt: text}).
		Post("/api/embeddings")
	if err != nil {
		e.fail("transport")
		return domain.EmbeddingResult{}, fmt.Errorf("ollama embeddings: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if resp.IsError() {
		e.fail("api_error")
		e.logger.Warn("ollama embedding rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("model", e.model))
		return domain.EmbeddingResult{}, fmt.Errorf("embedding API error %d: %s: %w",
			resp.StatusCode(), errorDetail(resp.Body()), domain.ErrEmbeddingProviderError)
	}

	var out embedResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		e.fail("decode")
		return domain.EmbeddingResult{}, fmt.Errorf("decode embedding response: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(out.Embedding) == 0 {
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(time.Since(start).Seconds())

	return domain.EmbeddingResult{
		Embedding: lo.Map(out.Embedding, func(v float64, _ int) float32 { return float32(v) }),
	}, nil
}

// HealthCheck verifies the daemon answers.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return ping(ctx, e.client)
}

func (e *Embedder) fail(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, kind).Inc()
}
