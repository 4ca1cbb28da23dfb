package domain

import "time"

// NoteVersion is one historical snapshot of a note's content.
// The version list is append-only.
type NoteVersion struct {
	// Content is the note body at this point in time.
	Content string

	// Timestamp is when this version was recorded.
	Timestamp time.Time
}

// Note is a user note with content history and an optional embedding.
type Note struct {
	// ID is the unique identifier.
	ID string

	// Owner is the identity of the note's owner.
	Owner string

	// Title is the note title.
	Title string

	// Content is the current note body (markdown).
	Content string

	// Tags are free-form labels.
	Tags []string

	// Versions is the append-only content history, oldest first.
	Versions []NoteVersion

	// Embedding is the semantic vector for title+content. It is derived
	// data: absence or staleness must never block other note operations.
	Embedding []float32

	// CreatedAt is when the note was created.
	CreatedAt time.Time

	// UpdatedAt is when the note was last modified.
	UpdatedAt time.Time
}

// HasEmbedding reports whether the note has been indexed.
func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}

// EmbeddingText is the text embedded for this note: title and content,
// newline separated. Regenerated whenever either changes.
func (n *Note) EmbeddingText() string {
	return n.Title + "\n" + n.Content
}

// NoteSearchResult is one hit from semantic note search.
type NoteSearchResult struct {
	// NoteID identifies the matched note.
	NoteID string

	// Title is the note title.
	Title string

	// Excerpt is the leading portion of the note content.
	Excerpt string

	// Score is the final relevance score: rerank relevance when available,
	// cosine similarity on the degraded path.
	Score float64
}

// NoteSearchOptions tunes the two-stage retrieval pipeline.
type NoteSearchOptions struct {
	// ShortlistSize is the cosine-similarity shortlist length (default 20).
	ShortlistSize int

	// TopN is the number of results returned after reranking (default 5).
	TopN int
}

// NoteSearchOutput is the full result of one search request.
type NoteSearchOutput struct {
	// Results are the matched notes, best first.
	Results []NoteSearchResult

	// Degraded is true when rerank was unavailable and the results are
	// ordered by cosine similarity only.
	Degraded bool
}
