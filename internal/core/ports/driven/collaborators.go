package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// TaskService is the task CRUD collaborator.
type TaskService interface {
	// Create stores a new task and returns it with ID and timestamps set.
	Create(ctx context.Context, owner string, task domain.Task) (*domain.Task, error)

	// List returns the owner's tasks matching the filters, newest first.
	List(ctx context.Context, owner string, filters domain.TaskFilters) ([]domain.Task, error)

	// Update applies a patch to a task and returns the updated record.
	Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error)
}

// ExpenseService is the expense CRUD and aggregation collaborator.
type ExpenseService interface {
	// Create stores a new expense and returns it with ID and timestamps set.
	Create(ctx context.Context, owner string, expense domain.Expense) (*domain.Expense, error)

	// List returns the owner's expenses matching the filters, newest first.
	List(ctx context.Context, owner string, filters domain.ExpenseFilters) ([]domain.Expense, error)

	// Stats aggregates the owner's spending per category plus a monthly total.
	Stats(ctx context.Context, owner string) (*domain.ExpenseStats, error)
}

// NoteStore is the note persistence collaborator.
type NoteStore interface {
	// Create stores a new note with its first content version.
	Create(ctx context.Context, note domain.Note) (*domain.Note, error)

	// Update applies title/content/tag changes. A content change appends
	// a version entry; a title or content change clears the embedding so
	// the note is reindexed.
	Update(ctx context.Context, owner, id string, title, content *string, tags []string) (*domain.Note, error)

	// Get returns one note by ID.
	Get(ctx context.Context, owner, id string) (*domain.Note, error)

	// ListEmbedded returns the owner's notes that carry an embedding.
	// Notes without one were never indexed and are excluded from search.
	ListEmbedded(ctx context.Context, owner string) ([]domain.Note, error)

	// SetEmbedding stores a freshly generated embedding for a note.
	SetEmbedding(ctx context.Context, owner, id string, embedding []float32) error
}

// WeatherService is the weather data collaborator.
type WeatherService interface {
	// GetSummary returns the composed weather report for a city.
	GetSummary(ctx context.Context, city string) (*domain.WeatherSummary, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
