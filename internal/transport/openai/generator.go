package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Generator sends single-turn prompts to an OpenAI-compatible chat completions API.
type Generator struct {
	client *openai.Client
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(apiKey, baseURL string) *Generator {
	return &Generator{client: newClient(apiKey, baseURL)}
}

// Generate sends prompt as one user message and returns the first choice's text.
// An HTTP error status maps to domain.ErrGenerationFailed, anything that
// prevented a response maps to domain.ErrUnreachable.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyGenerateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func classifyGenerateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrGenerationFailed)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("status %d: %w", reqErr.HTTPStatusCode, domain.ErrGenerationFailed)
	}
	return fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
}
