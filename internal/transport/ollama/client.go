// Package ollama talks to the native Ollama HTTP API for generation and embeddings.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is where a local Ollama daemon listens.
const DefaultBaseURL = "http://localhost:11434"

func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// ping lists installed models, the cheapest call Ollama serves.
func ping(ctx context.Context, c *resty.Client) error {
	resp, err := c.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama tags: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ollama tags: status %d", resp.StatusCode())
	}
	return nil
}
