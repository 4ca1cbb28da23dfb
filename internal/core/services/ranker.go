package services

import (
	"math"
	"sort"
)

// Candidate pairs an ID with its embedding for ranking.
type Candidate struct {
	// ID identifies the candidate (note ID).
	ID string

	// Embedding is the candidate's vector.
	Embedding []float32
}

// RankedCandidate is a candidate with its similarity score.
type RankedCandidate struct {
	// ID identifies the candidate.
	ID string

	// Score is the cosine similarity against the query, in [-1, 1].
	Score float64
}

// Cosine computes the cosine similarity of two vectors: dot product over
// the product of Euclidean norms. Returns 0 when either vector has zero
// magnitude or the lengths differ, so an all-zero or missing embedding
// ranks last instead of crashing.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankTopK scores candidates against the query vector and returns the top k
// by descending cosine similarity. The sort is stable: candidates with equal
// scores keep their input order.
func RankTopK(query []float32, candidates []Candidate, k int) []RankedCandidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedCandidate{ID: c.ID, Score: Cosine(query, c.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	return ranked
}
