package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

type fakeNoteStore struct {
	embedded   []domain.Note
	listErr    error
	embeddings map[string][]float32
	setErr     error
}

func (f *fakeNoteStore) Create(ctx context.Context, note domain.Note) (*domain.Note, error) {
	return &note, nil
}

func (f *fakeNoteStore) Update(ctx context.Context, owner, id string, title, content *string, tags []string) (*domain.Note, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeNoteStore) Get(ctx context.Context, owner, id string) (*domain.Note, error) {
	for i := range f.embedded {
		if f.embedded[i].ID == id {
			return &f.embedded[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNoteStore) ListEmbedded(ctx context.Context, owner string) ([]domain.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.embedded, nil
}

func (f *fakeNoteStore) SetEmbedding(ctx context.Context, owner, id string, embedding []float32) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.embeddings == nil {
		f.embeddings = make(map[string][]float32)
	}
	f.embeddings[id] = embedding
	return nil
}

func embeddedNote(id, title, content string, vec []float32) domain.Note {
	return domain.Note{ID: id, Owner: "local", Title: title, Content: content, Embedding: vec}
}

func TestNoteSearch_RerankOrdersResults(t *testing.T) {
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("n1", "Go tips", "Prefer small interfaces.", []float32{1, 0}),
		embeddedNote("n2", "Cooking", "Slow roast the garlic.", []float32{0.9, 0.1}),
		embeddedNote("n3", "Travel", "Pack light for Kyoto.", []float32{0, 1}),
	}}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}
	// Reranker prefers the second shortlist entry over the first.
	rr := &stubReranker{hits: []driven.RerankHit{{Index: 1, Score: 0.95}, {Index: 0, Score: 0.6}}}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, rr), store, domain.NoteSearchOptions{})

	output, err := svc.Search(context.Background(), "local", "how do I write go")
	require.NoError(t, err)
	assert.False(t, output.Degraded)

	require.Len(t, output.Results, 2)
	assert.Equal(t, "n2", output.Results[0].NoteID)
	assert.InDelta(t, 0.95, output.Results[0].Score, 1e-9)
	assert.Equal(t, "n1", output.Results[1].NoteID)
}

func TestNoteSearch_EmbedFailureAbortsSearch(t *testing.T) {
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("n1", "Go tips", "body", []float32{1, 0}),
	}}
	emb := &stubEmbedder{err: errors.New("provider down")}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), store, domain.NoteSearchOptions{})

	_, err := svc.Search(context.Background(), "local", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNoteSearch_NoEmbeddingProviderAbortsSearch(t *testing.T) {
	svc := NewNoteSearchService(NewModelGateway(nil, nil, nil), &fakeNoteStore{}, domain.NoteSearchOptions{})

	_, err := svc.Search(context.Background(), "local", "anything")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNoteSearch_RerankFailureDegradesToCosine(t *testing.T) {
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("far", "Far", "far away", []float32{0, 1}),
		embeddedNote("near", "Near", "close match", []float32{1, 0}),
		embeddedNote("mid", "Mid", "somewhere between", []float32{1, 1}),
	}}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}
	rr := &stubReranker{err: errors.New("rerank 503")}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, rr), store, domain.NoteSearchOptions{TopN: 2})

	output, err := svc.Search(context.Background(), "local", "close")
	require.NoError(t, err)
	assert.True(t, output.Degraded)

	require.Len(t, output.Results, 2)
	assert.Equal(t, "near", output.Results[0].NoteID)
	assert.Equal(t, "mid", output.Results[1].NoteID)
	assert.Greater(t, output.Results[0].Score, output.Results[1].Score)
}

func TestNoteSearch_NoRerankProviderDegradesToCosine(t *testing.T) {
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("n1", "Only", "single note", []float32{1, 0}),
	}}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), store, domain.NoteSearchOptions{})

	output, err := svc.Search(context.Background(), "local", "single")
	require.NoError(t, err)
	assert.True(t, output.Degraded)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "n1", output.Results[0].NoteID)
}

func TestNoteSearch_OnlyIndexedNotesAreSearched(t *testing.T) {
	// The store contract: ListEmbedded excludes unindexed notes. The
	// service must work purely off that list.
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("indexed-1", "A", "a", []float32{1, 0}),
		embeddedNote("indexed-2", "B", "b", []float32{0.5, 0.5}),
	}}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), store, domain.NoteSearchOptions{})

	output, err := svc.Search(context.Background(), "local", "query")
	require.NoError(t, err)
	require.Len(t, output.Results, 2)
	for _, r := range output.Results {
		assert.Contains(t, []string{"indexed-1", "indexed-2"}, r.NoteID)
	}
}

func TestNoteSearch_EmptyQueryRejected(t *testing.T) {
	svc := NewNoteSearchService(NewModelGateway(nil, &stubEmbedder{}, nil), &fakeNoteStore{}, domain.NoteSearchOptions{})

	_, err := svc.Search(context.Background(), "local", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNoteSearch_NoIndexedNotes(t *testing.T) {
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}
	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), &fakeNoteStore{}, domain.NoteSearchOptions{})

	output, err := svc.Search(context.Background(), "local", "query")
	require.NoError(t, err)
	assert.Empty(t, output.Results)
	assert.False(t, output.Degraded)
}

func TestNoteSearch_ShortlistCapsRerankInput(t *testing.T) {
	var notes []domain.Note
	for i := 0; i < 30; i++ {
		notes = append(notes, embeddedNote(
			fmt.Sprintf("n%02d", i), fmt.Sprintf("Note %d", i), "body",
			[]float32{float32(30 - i), 1},
		))
	}
	store := &fakeNoteStore{embedded: notes}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}
	rr := &stubReranker{err: errors.New("force cosine path")}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, rr), store, domain.NoteSearchOptions{ShortlistSize: 20, TopN: 25})

	output, err := svc.Search(context.Background(), "local", "query")
	require.NoError(t, err)
	// TopN beyond the shortlist is clamped to the shortlist length.
	assert.Len(t, output.Results, 20)
}

func TestNoteSearch_ExcerptTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100)
	store := &fakeNoteStore{embedded: []domain.Note{
		embeddedNote("n1", "Long", long, []float32{1, 0}),
	}}
	emb := &stubEmbedder{vectors: [][]float32{{1, 0}}}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), store, domain.NoteSearchOptions{})

	output, err := svc.Search(context.Background(), "local", "query")
	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.True(t, strings.HasSuffix(output.Results[0].Excerpt, "..."))
	assert.LessOrEqual(t, len([]rune(output.Results[0].Excerpt)), excerptRunes+3)
}

func TestIndexNote_StoresEmbedding(t *testing.T) {
	store := &fakeNoteStore{}
	emb := &stubEmbedder{vectors: [][]float32{{0.1, 0.2, 0.3}}}

	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), store, domain.NoteSearchOptions{})

	note := domain.Note{ID: "n1", Owner: "local", Title: "T", Content: "C"}
	require.NoError(t, svc.IndexNote(context.Background(), note))

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, store.embeddings["n1"])
	// Title and content both feed the embedding input.
	require.Len(t, emb.inputs, 1)
	assert.Equal(t, "T\nC", emb.inputs[0][0])
}

func TestIndexNote_EmbedFailureReturnsError(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("down")}
	svc := NewNoteSearchService(NewModelGateway(nil, emb, nil), &fakeNoteStore{}, domain.NoteSearchOptions{})

	err := svc.IndexNote(context.Background(), domain.Note{ID: "n1", Owner: "local"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
