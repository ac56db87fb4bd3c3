package retrieval

import (
	"context"
	"time"

	"github.com/kbukum/ragflow/dag"
)

// DefaultCollection receives uploads that do not name a collection.
const DefaultCollection = "documents"

// Document is an uploaded source file.
type Document struct {
	ID         string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	Collection string    `json:"collection"`
	Chunks     int       `json:"chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is one embedded slice of a document's text.
type Chunk struct {
	Index     int
	Text      string
	Embedding []float32
}

// Store persists documents with their chunks and searches chunks by vector
// distance.
type Store interface {
	// SaveDocument stores doc and replaces any chunks it had.
	SaveDocument(ctx context.Context, doc Document, chunks []Chunk) error
	// ListDocuments returns every document, newest upload first.
	ListDocuments(ctx context.Context) ([]Document, error)
	// DeleteDocument removes a document and its chunks. It returns a
	// NOT_FOUND AppError when id is unknown.
	DeleteDocument(ctx context.Context, id string) error
	// HasCollection reports whether any document belongs to collection.
	// A document id is also accepted, naming a collection of one document.
	HasCollection(ctx context.Context, collection string) (bool, error)
	// Search returns at most topK chunks of collection nearest to embedding.
	// collection may be a document id, as for HasCollection.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]dag.Passage, error)
	Ping(ctx context.Context) error
	Close()
}

// Embedder turns text into a vector. llm.Adapter satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
