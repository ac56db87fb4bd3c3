package dag

import (
	"context"
	stderrors "errors"
)

// ErrCollectionNotFound is returned by a Retriever asked for a collection
// it does not hold.
var ErrCollectionNotFound = stderrors.New("collection not found")

// Passage is one ranked retrieval hit.
type Passage struct {
	ID         string  `json:"id"`
	Collection string  `json:"collection"`
	Text       string  `json:"text"`
	Source     string  `json:"source,omitempty"`
	Score      float64 `json:"score"`
}

// Retriever returns up to topK passages of collection ranked by relevance
// to query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, topK int) ([]Passage, error)
}

// Generator completes a prompt with a language model.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, temperature float64) (string, error)
}

// Collaborators are the external capabilities of one run. A nil field is
// only an error when a node needing that capability is dispatched.
type Collaborators struct {
	Retriever Retriever
	Generator Generator
}
