// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// LLMService provides chat completions for planning and summarisation.
// This is an optional service - when nil, the model gateway degrades to
// deterministic canned replies.
//
// Implementations may include:
//   - OpenAI or any /chat/completions-compatible API
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a multi-turn conversation and returns the completion.
	Chat(ctx context.Context, messages []domain.Utterance, opts ChatOptions) (Completion, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// TokenUsage reports provider token accounting for one completion.
type TokenUsage struct {
	// PromptTokens is the number of input tokens consumed.
	PromptTokens int

	// CompletionTokens is the number of output tokens generated.
	CompletionTokens int

	// TotalTokens is the provider-reported total.
	TotalTokens int
}

// Completion is the result of one chat call.
type Completion struct {
	// Text is the generated reply.
	Text string

	// Usage is the token accounting, when the provider reports it.
	Usage *TokenUsage
}
