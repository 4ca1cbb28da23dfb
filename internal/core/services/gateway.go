package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/logger"
)

// DefaultModelTimeout bounds every provider call. A timed-out call is
// reported the same way as a provider error, never left hanging.
const DefaultModelTimeout = 30 * time.Second

// ModelGateway is the uniform client for chat completion, embedding and
// rerank providers. All three services are optional and independent:
//   - nil chat service degrades Complete to a deterministic canned reply
//   - nil embedding service makes Embed fail with ErrEmbeddingUnavailable
//   - nil rerank service makes Rerank fail with ErrRerankUnavailable
type ModelGateway struct {
	llm      driven.LLMService
	embedder driven.EmbeddingService
	reranker driven.RerankService
	timeout  time.Duration
}

// NewModelGateway creates a gateway over the given provider services.
// Any of the services may be nil.
func NewModelGateway(
	llm driven.LLMService,
	embedder driven.EmbeddingService,
	reranker driven.RerankService,
) *ModelGateway {
	return &ModelGateway{
		llm:      llm,
		embedder: embedder,
		reranker: reranker,
		timeout:  DefaultModelTimeout,
	}
}

// SetTimeout overrides the per-call timeout. Useful for tests.
func (g *ModelGateway) SetTimeout(d time.Duration) {
	g.timeout = d
}

// HasChat reports whether a real chat provider is configured.
func (g *ModelGateway) HasChat() bool {
	return g.llm != nil
}

// Complete sends a conversation to the chat provider. When no provider is
// configured it returns a canned reply derived from the last message and
// never fails. Provider errors and timeouts surface as ErrModelUnavailable.
func (g *ModelGateway) Complete(
	ctx context.Context, messages []domain.Utterance, opts driven.ChatOptions,
) (driven.Completion, error) {
	if g.llm == nil {
		logger.Debug("Chat provider not configured, returning canned reply")
		return driven.Completion{Text: cannedReply(messages)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.llm.Chat(ctx, messages, opts)
	if err != nil {
		logger.Warn("Chat completion failed: %v", err)
		return driven.Completion{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	if completion.Usage != nil {
		logger.Debug("Completion used %d tokens", completion.Usage.TotalTokens)
	}

	return completion, nil
}

// Embed generates one vector per input text, order-preserving. Fails with
// ErrEmbeddingUnavailable when no embedding provider is configured or the
// provider errors; callers treat this as a soft failure.
func (g *ModelGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if g.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Warn("Embedding failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	return vectors, nil
}

// Rerank scores documents against a query, returning at most topN hits by
// descending relevance. Fails with ErrRerankUnavailable when no rerank
// provider is configured or the provider errors; callers fall back to
// cosine ordering.
func (g *ModelGateway) Rerank(
	ctx context.Context, query string, documents []string, topN int,
) ([]driven.RerankHit, error) {
	if g.reranker == nil {
		return nil, domain.ErrRerankUnavailable
	}
	if len(documents) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	hits, err := g.reranker.Rerank(ctx, query, documents, topN)
	if err != nil {
		logger.Warn("Rerank failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}

	return hits, nil
}

// cannedReply derives a deterministic reply from keyword matching on the
// last message. Used when no chat provider is configured so the assistant
// still answers something sensible.
func cannedReply(messages []domain.Utterance) string {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != domain.RoleSystem {
			last = messages[i].Content
			break
		}
	}
	lower := strings.ToLower(last)

	reply := "Hello! I'm your workbench assistant."
	switch {
	case containsAny(lower, "task", "todo", "remind", "任务"):
		reply = "I can help you manage tasks: create them, set priorities and list what's pending. What do you need?"
	case containsAny(lower, "expense", "spend", "spent", "money", "cost", "费用", "支出", "记账"):
		reply = "I can track your expenses: record new spending, show statistics and spot unusual purchases. What do you need?"
	case containsAny(lower, "note", "wrote", "remember", "笔记"):
		reply = "I can manage your notes: create new ones, search them and answer questions from what you've written. What do you need?"
	case containsAny(lower, "weather", "umbrella", "rain", "天气"):
		reply = "I can look up the weather for you, including the forecast and air quality. Which city?"
	}

	return reply + "\n\n(No chat provider is configured - run 'workbench settings' to enable real AI replies.)"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
