package gateway

import "context"

// Generator is the provider-level generation call (Ollama native or OpenAI-compatible).
// Implementations wrap failures with domain.ErrUnreachable or domain.ErrGenerationFailed.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
