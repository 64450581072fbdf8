// Package openai adapts OpenAI-compatible HTTP APIs (OpenAI, vLLM, LM Studio,
// the Ollama /v1 surface) to the embedding and generation contracts.
package openai

import openai "github.com/sashabaranov/go-openai"

// newClient builds a go-openai client. An empty baseURL keeps the public OpenAI endpoint.
func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
