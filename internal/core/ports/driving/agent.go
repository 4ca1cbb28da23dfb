// Package driving provides interfaces for primary/inbound ports.
package driving

import (
	"context"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// AgentService turns a user utterance into an agent response.
type AgentService interface {
	// Run executes one agent turn: plan, execute tools, summarise.
	// It always returns a response; failures surface in the reply text.
	Run(ctx context.Context, owner, utterance string, history []domain.Utterance) domain.AgentResponse
}

// NoteSearchService finds notes relevant to a query.
type NoteSearchService interface {
	// Search runs the two-stage semantic retrieval pipeline.
	Search(ctx context.Context, owner, query string) (*domain.NoteSearchOutput, error)

	// IndexNote generates and stores a fresh embedding for a note.
	// Failures are soft: the note stays unindexed until the next attempt.
	IndexNote(ctx context.Context, note domain.Note) error
}
