// Package provider talks to the text-generation service that drafts runbooks.
package provider

import (
	"context"
	"time"
)

// Client generates text from a prompt.
type Client interface {
	// Generate sends one prompt and returns the complete response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Info describes the provider and the model it targets.
	Info() Info

	// Health reports whether the provider is configured and reachable.
	Health(ctx context.Context) error

	Close() error
}

// Info is provider metadata.
type Info struct {
	Name        string `json:"name"`
	Model       string `json:"model"`
	Description string `json:"description"`
	Configured  bool   `json:"configured"`
}

// GenerateRequest holds the parameters of one generation.
type GenerateRequest struct {
	Prompt string `json:"prompt"`

	// SystemPrompt is optional system-level instruction text.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens caps the response length; 0 uses the client default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness; nil uses the client default.
	Temperature *float64 `json:"temperature,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// GenerateResponse is the model's answer.
type GenerateResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	FinishReason string        `json:"finish_reason"`
	Latency      time.Duration `json:"latency"`
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TokensUsed   int           `json:"tokens_used"`
}

// Float returns a pointer to v, for GenerateRequest.Temperature.
func Float(v float64) *float64 {
	return &v
}
