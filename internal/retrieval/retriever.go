// Package retrieval pairs the query embedder with the fragment store so
// callers can search by question text.
package retrieval

import (
	"context"
	"fmt"

	"github.com/pb1803/PDF-RAG/internal/logger"
	"github.com/pb1803/PDF-RAG/internal/models"
)

// Embedder turns text into a query vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Store performs nearest-neighbor search over stored fragments.
type Store interface {
	SearchSimilar(ctx context.Context, embedding []float64, docScope string, limit int) ([]models.Fragment, error)
}

// Retriever embeds a question and returns the top-K scored fragments.
type Retriever struct {
	embedder Embedder
	store    Store
	log      logger.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder, store Store, log logger.Logger) *Retriever {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Retriever{embedder: embedder, store: store, log: log}
}

// Search embeds the query and runs a similarity search. An empty result is
// not an error; only infrastructure failures return one.
func (r *Retriever) Search(ctx context.Context, query, docScope string, topK int) ([]models.Fragment, error) {
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	fragments, err := r.store.SearchSimilar(ctx, embedding, docScope, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search fragments: %w", err)
	}

	r.log.Debug("retrieval complete", map[string]interface{}{
		"results":   len(fragments),
		"doc_scope": docScope,
		"top_k":     topK,
	})

	return fragments, nil
}
