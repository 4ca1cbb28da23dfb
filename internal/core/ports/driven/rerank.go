package driven

import "context"

// RerankService scores a short candidate list against a query.
// This is an optional service - when nil, note search falls back to
// cosine-only ranking. Reranking is the expensive, precise second stage
// after the cheap vector shortlist.
type RerankService interface {
	// Rerank scores documents against the query and returns at most topN
	// hits ordered by descending relevance.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankHit, error)

	// ModelName returns the name of the rerank model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// RerankHit is one reranked document.
type RerankHit struct {
	// Index is the position of the document in the input slice.
	Index int

	// Score is the relevance score, higher is more relevant.
	Score float64
}
