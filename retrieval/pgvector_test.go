package retrieval_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/retrieval"
)

// Runs against a real PostgreSQL with pgvector when RAGFLOW_TEST_PG_DSN is set.
func TestPGStore(t *testing.T) {
	dsn := os.Getenv("RAGFLOW_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RAGFLOW_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := retrieval.NewPGStore(ctx, retrieval.Config{
		Backend: retrieval.BackendPGVector, DSN: dsn, Dimensions: 3, AutoMigrate: true,
	}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	collection := "test-" + uuid.NewString()
	id := uuid.NewString()
	err = s.SaveDocument(ctx, retrieval.Document{ID: id, Filename: "a.pdf", Collection: collection, UploadedAt: time.Now()},
		[]retrieval.Chunk{
			{Index: 0, Text: "north", Embedding: []float32{0, 1, 0}},
			{Index: 1, Text: "east", Embedding: []float32{1, 0, 0}},
		})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	defer s.DeleteDocument(ctx, id)

	got, err := s.Search(ctx, collection, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Text != "east" || got[0].Score != 1 {
		t.Fatalf("expected exact match on east, got %+v", got)
	}

	err = s.SaveDocument(ctx, retrieval.Document{ID: id, Collection: collection},
		[]retrieval.Chunk{{Index: 0, Text: "bad", Embedding: []float32{1}}})
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for wrong dimensions, got %v", err)
	}
}
