package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) EmbedText(context.Context, string) ([]float64, error) {
	return f.vector, f.err
}

type fakeStore struct {
	fragments []models.Fragment
	err       error

	gotEmbedding []float64
	gotScope     string
	gotLimit     int
}

func (f *fakeStore) SearchSimilar(_ context.Context, embedding []float64, docScope string, limit int) ([]models.Fragment, error) {
	f.gotEmbedding = embedding
	f.gotScope = docScope
	f.gotLimit = limit
	return f.fragments, f.err
}

func TestSearchPassesQueryEmbeddingThrough(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float64{0.1, 0.2, 0.3}}
	store := &fakeStore{fragments: []models.Fragment{
		{ID: "chunk-1", DocumentID: "d1", Page: 3, Score: 0.8, Text: "excerpt"},
	}}
	r := NewRetriever(embedder, store, nil)

	fragments, err := r.Search(context.Background(), "what is a view?", "d1", 5)
	require.NoError(t, err)

	assert.Equal(t, embedder.vector, store.gotEmbedding)
	assert.Equal(t, "d1", store.gotScope)
	assert.Equal(t, 5, store.gotLimit)
	require.Len(t, fragments, 1)
	assert.Equal(t, "chunk-1", fragments[0].ID)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, &fakeStore{}, nil)

	fragments, err := r.Search(context.Background(), "obscure question", "", 5)
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestSearchWrapsEmbedderFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("model offline")}, &fakeStore{}, nil)

	_, err := r.Search(context.Background(), "question", "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestSearchWrapsStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, store, nil)

	_, err := r.Search(context.Background(), "question", "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search fragments")
}
