// Package memory provides an in-memory note store. It mirrors the SQLite
// store's semantics (version history, embedding invalidation) without any
// I/O, which keeps service-level tests fast and hermetic.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// Compile-time interface check.
var _ driven.NoteStore = (*NoteStore)(nil)

// NoteStore holds notes in a map guarded by a mutex.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]domain.Note
}

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[string]domain.Note)}
}

// Create stores a new note with its first content version.
func (s *NoteStore) Create(_ context.Context, note domain.Note) (*domain.Note, error) {
	if strings.TrimSpace(note.Title) == "" {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now
	note.Versions = []domain.NoteVersion{{Content: note.Content, Timestamp: now}}
	if note.Tags == nil {
		note.Tags = []string{}
	}

	s.notes[note.ID] = note
	return copyNote(note), nil
}

// Update applies title/content/tag changes. A content change appends a
// version entry; a title or content change clears the embedding.
func (s *NoteStore) Update(_ context.Context, owner, id string, title, content *string, tags []string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || note.Owner != owner {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	reindex := false

	if title != nil && *title != note.Title {
		note.Title = *title
		reindex = true
	}
	if content != nil && *content != note.Content {
		note.Content = *content
		note.Versions = append(note.Versions, domain.NoteVersion{Content: *content, Timestamp: now})
		reindex = true
	}
	if tags != nil {
		note.Tags = tags
	}
	if reindex {
		note.Embedding = nil
	}
	note.UpdatedAt = now

	s.notes[id] = note
	return copyNote(note), nil
}

// Get returns one note by ID.
func (s *NoteStore) Get(_ context.Context, owner, id string) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok || note.Owner != owner {
		return nil, domain.ErrNotFound
	}
	return copyNote(note), nil
}

// ListEmbedded returns the owner's notes that carry an embedding.
func (s *NoteStore) ListEmbedded(_ context.Context, owner string) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Note
	for _, note := range s.notes {
		if note.Owner != owner || !note.HasEmbedding() {
			continue
		}
		out = append(out, *copyNote(note))
	}
	return out, nil
}

// SetEmbedding stores a freshly generated embedding for a note.
func (s *NoteStore) SetEmbedding(_ context.Context, owner, id string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || note.Owner != owner {
		return domain.ErrNotFound
	}

	note.Embedding = append([]float32(nil), embedding...)
	s.notes[id] = note
	return nil
}

// copyNote returns a deep enough copy that callers cannot mutate the
// store's slices through the returned note.
func copyNote(note domain.Note) *domain.Note {
	out := note
	out.Tags = append([]string(nil), note.Tags...)
	out.Versions = append([]domain.NoteVersion(nil), note.Versions...)
	out.Embedding = append([]float32(nil), note.Embedding...)
	return &out
}
