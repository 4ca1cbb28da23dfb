package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates the chat model provider is unreachable,
	// erroring, or timed out. The agent surfaces this as an apologetic reply
	// rather than failing the conversation.
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured or failed. Note indexing degrades; semantic search fails.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRerankUnavailable indicates the rerank provider is not configured
	// or failed. Search falls back to cosine-only ranking.
	ErrRerankUnavailable = errors.New("rerank service unavailable")

	// ErrUnknownTool indicates the planner requested a tool that is not in
	// the catalog. Reported as a failed outcome, never a crash.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidToolParams indicates a tool call is missing required
	// parameters or carries malformed values.
	ErrInvalidToolParams = errors.New("invalid tool parameters")
)
