package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/logger"
)

const (
	// DefaultShortlistSize is the cosine-similarity shortlist length.
	DefaultShortlistSize = 20

	// DefaultSearchTopN is the number of results returned to the caller.
	DefaultSearchTopN = 5

	// excerptRunes bounds the excerpt attached to each search result.
	excerptRunes = 160
)

// NoteSearchService implements two-stage semantic retrieval over notes:
// cosine shortlist first, rerank refinement second. Rerank failures
// degrade to cosine ordering; embedding failures abort the search.
type NoteSearchService struct {
	gateway *ModelGateway
	notes   driven.NoteStore
	opts    domain.NoteSearchOptions
}

// NewNoteSearchService creates the search service. Zero-valued options
// fall back to the defaults (shortlist 20, top 5).
func NewNoteSearchService(gateway *ModelGateway, notes driven.NoteStore, opts domain.NoteSearchOptions) *NoteSearchService {
	if opts.ShortlistSize <= 0 {
		opts.ShortlistSize = DefaultShortlistSize
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultSearchTopN
	}
	return &NoteSearchService{gateway: gateway, notes: notes, opts: opts}
}

// Search embeds the query, shortlists the owner's indexed notes by cosine
// similarity, then reranks the shortlist. Notes without an embedding are
// invisible to search. Returns an error when the query cannot be embedded;
// a rerank failure instead degrades to cosine ordering with Degraded set.
func (s *NoteSearchService) Search(ctx context.Context, owner, query string) (*domain.NoteSearchOutput, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}

	vectors, err := s.gateway.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}
	queryVector := vectors[0]

	notes, err := s.notes.ListEmbedded(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing indexed notes: %w", err)
	}
	if len(notes) == 0 {
		return &domain.NoteSearchOutput{}, nil
	}

	byID := make(map[string]*domain.Note, len(notes))
	candidates := make([]Candidate, len(notes))
	for i := range notes {
		byID[notes[i].ID] = &notes[i]
		candidates[i] = Candidate{ID: notes[i].ID, Embedding: notes[i].Embedding}
	}

	shortlist := RankTopK(queryVector, candidates, s.opts.ShortlistSize)
	logger.Debug("Shortlisted %d of %d notes for query", len(shortlist), len(notes))

	documents := make([]string, len(shortlist))
	for i, rc := range shortlist {
		documents[i] = byID[rc.ID].EmbeddingText()
	}

	hits, err := s.gateway.Rerank(ctx, query, documents, s.opts.TopN)
	if err != nil {
		logger.Warn("Rerank unavailable, falling back to cosine ordering: %v", err)
		return s.cosineFallback(shortlist, byID), nil
	}

	results := make([]domain.NoteSearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(shortlist) {
			logger.Warn("Rerank returned out-of-range index %d, skipping", hit.Index)
			continue
		}
		note := byID[shortlist[hit.Index].ID]
		results = append(results, domain.NoteSearchResult{
			NoteID:  note.ID,
			Title:   note.Title,
			Excerpt: excerpt(note.Content),
			Score:   hit.Score,
		})
	}

	return &domain.NoteSearchOutput{Results: results}, nil
}

// cosineFallback turns the cosine shortlist head into final results.
func (s *NoteSearchService) cosineFallback(shortlist []RankedCandidate, byID map[string]*domain.Note) *domain.NoteSearchOutput {
	n := s.opts.TopN
	if n > len(shortlist) {
		n = len(shortlist)
	}

	results := make([]domain.NoteSearchResult, 0, n)
	for _, rc := range shortlist[:n] {
		note := byID[rc.ID]
		results = append(results, domain.NoteSearchResult{
			NoteID:  note.ID,
			Title:   note.Title,
			Excerpt: excerpt(note.Content),
			Score:   rc.Score,
		})
	}

	return &domain.NoteSearchOutput{Results: results, Degraded: true}
}

// IndexNote generates and stores an embedding for the note. Failures are
// returned so the caller can log them, but they must never block the write
// that triggered indexing.
func (s *NoteSearchService) IndexNote(ctx context.Context, note domain.Note) error {
	vectors, err := s.gateway.Embed(ctx, []string{note.EmbeddingText()})
	if err != nil {
		return fmt.Errorf("embedding note %s: %w", note.ID, err)
	}

	if err := s.notes.SetEmbedding(ctx, note.Owner, note.ID, vectors[0]); err != nil {
		return fmt.Errorf("storing embedding for note %s: %w", note.ID, err)
	}

	logger.Debug("Indexed note %s (%d dimensions)", note.ID, len(vectors[0]))
	return nil
}

// excerpt returns the leading portion of content, trimmed to a rune budget.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= excerptRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:excerptRunes]) + "..."
}
