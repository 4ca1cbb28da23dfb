package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/services"
)

func TestNoteStore_CreateRecordsFirstVersion(t *testing.T) {
	store := NewNoteStore()

	note, err := store.Create(context.Background(), domain.Note{
		Owner:   "local",
		Title:   "Reading list",
		Content: "Effective Go",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, note.ID)
	require.Len(t, note.Versions, 1)
	assert.Equal(t, "Effective Go", note.Versions[0].Content)
	assert.False(t, note.HasEmbedding())
}

func TestNoteStore_CreateRejectsEmptyTitle(t *testing.T) {
	store := NewNoteStore()

	_, err := store.Create(context.Background(), domain.Note{Owner: "local"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNoteStore_UpdateContentAppendsVersionAndClearsEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	created, err := store.Create(ctx, domain.Note{Owner: "local", Title: "T", Content: "v1"})
	require.NoError(t, err)
	require.NoError(t, store.SetEmbedding(ctx, "local", created.ID, []float32{1, 0}))

	newContent := "v2"
	updated, err := store.Update(ctx, "local", created.ID, nil, &newContent, nil)
	require.NoError(t, err)

	require.Len(t, updated.Versions, 2)
	assert.Equal(t, "v2", updated.Versions[1].Content)
	assert.False(t, updated.HasEmbedding())
}

func TestNoteStore_UpdateTagsOnlyKeepsEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	created, err := store.Create(ctx, domain.Note{Owner: "local", Title: "T", Content: "v1"})
	require.NoError(t, err)
	require.NoError(t, store.SetEmbedding(ctx, "local", created.ID, []float32{1, 0}))

	updated, err := store.Update(ctx, "local", created.ID, nil, nil, []string{"go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"go"}, updated.Tags)
	assert.True(t, updated.HasEmbedding())
	require.Len(t, updated.Versions, 1)
}

func TestNoteStore_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	created, err := store.Create(ctx, domain.Note{Owner: "alice", Title: "T", Content: "c"})
	require.NoError(t, err)

	_, err = store.Get(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.SetEmbedding(ctx, "bob", created.ID, []float32{1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNoteStore_ListEmbeddedSkipsUnindexed(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	indexed, err := store.Create(ctx, domain.Note{Owner: "local", Title: "Indexed", Content: "c"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.Note{Owner: "local", Title: "Unindexed", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, store.SetEmbedding(ctx, "local", indexed.ID, []float32{1, 0}))

	notes, err := store.ListEmbedded(ctx, "local")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, indexed.ID, notes[0].ID)
}

func TestNoteStore_ReturnedNotesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	created, err := store.Create(ctx, domain.Note{Owner: "local", Title: "T", Content: "c", Tags: []string{"a"}})
	require.NoError(t, err)

	created.Tags[0] = "mutated"

	fetched, err := store.Get(ctx, "local", created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, fetched.Tags)
}

// fixedEmbedder returns the same vector for every input, which is enough
// to drive an index-then-search round trip through the real search service.
type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int              { return len(f.vector) }
func (f *fixedEmbedder) ModelName() string            { return "fixed" }
func (f *fixedEmbedder) Ping(_ context.Context) error { return nil }
func (f *fixedEmbedder) Close() error                 { return nil }

func TestNoteStore_IndexThenSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()
	gateway := services.NewModelGateway(nil, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	search := services.NewNoteSearchService(gateway, store, domain.NoteSearchOptions{})

	created, err := store.Create(ctx, domain.Note{Owner: "local", Title: "Go tips", Content: "Prefer small interfaces."})
	require.NoError(t, err)
	require.NoError(t, search.IndexNote(ctx, *created))

	output, err := search.Search(ctx, "local", "interfaces")
	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.Equal(t, created.ID, output.Results[0].NoteID)
	assert.Equal(t, "Go tips", output.Results[0].Title)
}
