package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/ragflow/dag"
)

// Retriever serves retrieval nodes from a Store.
type Retriever struct {
	store    Store
	embedder Embedder
}

var _ dag.Retriever = (*Retriever)(nil)

// NewRetriever returns a Retriever that embeds queries with embedder.
func NewRetriever(store Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve checks the collection before embedding so an unknown collection
// never costs an embedding call.
func (r *Retriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]dag.Passage, error) {
	ok, err := r.store.HasCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", dag.ErrCollectionNotFound, collection)
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(ctx, collection, vec, topK)
}
