package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Generator calls POST /api/generate with streaming disabled.
type Generator struct {
	client *resty.Client
}

// NewGenerator creates a generator against an Ollama base URL.
// A zero timeout leaves the deadline to the caller's context.
func NewGenerator(baseURL string, timeout time.Duration) *Generator {
	return &Generator{client: newRestyClient(baseURL, timeout)}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate returns the model's full response text.
// Non-2xx statuses and undecodable bodies map to domain.ErrGenerationFailed,
// transport failures map to domain.ErrUnreachable.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&generateRequest{Model: model, Prompt: prompt, Stream: false}).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("status %d: %s: %w",
			resp.StatusCode(), errorDetail(resp.Body()), domain.ErrGenerationFailed)
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode generate response: %v: %w", err, domain.ErrGenerationFailed)
	}
	return out.Response, nil
}

// HealthCheck verifies the daemon answers.
func (g *Generator) HealthCheck(ctx context.Context) error {
	return ping(ctx, g.client)
}

func errorDetail(body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
