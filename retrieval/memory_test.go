package retrieval_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/retrieval"
)

func seed(t *testing.T, s retrieval.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	docs := []struct {
		doc    retrieval.Document
		chunks []retrieval.Chunk
	}{
		{
			retrieval.Document{ID: "a", Filename: "a.pdf", Collection: "manuals", UploadedAt: base},
			[]retrieval.Chunk{
				{Index: 0, Text: "north", Embedding: []float32{0, 1, 0}},
				{Index: 1, Text: "east", Embedding: []float32{1, 0, 0}},
			},
		},
		{
			retrieval.Document{ID: "b", Filename: "b.pdf", Collection: "manuals", UploadedAt: base.Add(time.Hour)},
			[]retrieval.Chunk{
				{Index: 0, Text: "north-east", Embedding: []float32{1, 1, 0}},
			},
		},
		{
			retrieval.Document{ID: "c", Filename: "c.pdf", UploadedAt: base.Add(2 * time.Hour)},
			[]retrieval.Chunk{
				{Index: 0, Text: "up", Embedding: []float32{0, 0, 1}},
			},
		},
	}
	for _, d := range docs {
		if err := s.SaveDocument(ctx, d.doc, d.chunks); err != nil {
			t.Fatalf("save %s: %v", d.doc.ID, err)
		}
	}
}

func TestMemoryStore_SearchRanksByCosine(t *testing.T) {
	s := retrieval.NewMemoryStore()
	seed(t, s)

	got, err := s.Search(context.Background(), "manuals", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var texts []string
	for _, p := range got {
		texts = append(texts, p.Text)
	}
	if diff := cmp.Diff([]string{"east", "north-east"}, texts); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
	if got[0].Source != "a.pdf" || got[0].ID != "a:1" || got[0].Collection != "manuals" {
		t.Fatalf("unexpected passage metadata: %+v", got[0])
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("expected descending scores, got %v then %v", got[0].Score, got[1].Score)
	}
}

func TestMemoryStore_SearchScopesCollection(t *testing.T) {
	s := retrieval.NewMemoryStore()
	seed(t, s)

	got, err := s.Search(context.Background(), retrieval.DefaultCollection, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "up" {
		t.Fatalf("expected only the default collection chunk, got %+v", got)
	}
}

func TestMemoryStore_DocumentIDAsCollection(t *testing.T) {
	s := retrieval.NewMemoryStore()
	seed(t, s)
	ctx := context.Background()

	ok, err := s.HasCollection(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("expected document id to resolve as a collection, got %v, %v", ok, err)
	}
	got, err := s.Search(ctx, "b", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "north-east" {
		t.Fatalf("expected only document b's chunk, got %+v", got)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := retrieval.NewMemoryStore()
	seed(t, s)

	docs, err := s.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if docs[2].Chunks != 2 {
		t.Fatalf("expected chunk count 2, got %d", docs[2].Chunks)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := retrieval.NewMemoryStore()
	seed(t, s)

	if err := s.DeleteDocument(ctx, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ := s.HasCollection(ctx, retrieval.DefaultCollection)
	if ok {
		t.Fatal("expected default collection to be gone with its only document")
	}

	err := s.DeleteDocument(ctx, "c")
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func TestRetriever(t *testing.T) {
	s := retrieval.NewMemoryStore()
	seed(t, s)

	t.Run("ranked passages", func(t *testing.T) {
		emb := &fakeEmbedder{vec: []float32{0, 1, 0}}
		got, err := retrieval.NewRetriever(s, emb).Retrieve(context.Background(), "manuals", "which way", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Text != "north" {
			t.Fatalf("expected [north], got %+v", got)
		}
	})

	t.Run("unknown collection skips embedding", func(t *testing.T) {
		emb := &fakeEmbedder{vec: []float32{0, 1, 0}}
		_, err := retrieval.NewRetriever(s, emb).Retrieve(context.Background(), "missing", "q", 3)
		if !stderrors.Is(err, dag.ErrCollectionNotFound) {
			t.Fatalf("expected ErrCollectionNotFound, got %v", err)
		}
		if emb.calls != 0 {
			t.Fatalf("expected no embedding calls, got %d", emb.calls)
		}
	})

	t.Run("embedding failure", func(t *testing.T) {
		boom := errors.ExternalServiceError("ollama", stderrors.New("down"))
		emb := &fakeEmbedder{err: boom}
		_, err := retrieval.NewRetriever(s, emb).Retrieve(context.Background(), "manuals", "q", 3)
		if !errors.IsCode(err, errors.ErrCodeExternalService) {
			t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
		}
	})
}

func TestConfig(t *testing.T) {
	cfg := retrieval.Config{}
	cfg.ApplyDefaults()
	if cfg.Backend != retrieval.BackendMemory || cfg.Dimensions != 768 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cfg.Backend = retrieval.BackendPGVector
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected pgvector without dsn to fail validation")
	}
}
