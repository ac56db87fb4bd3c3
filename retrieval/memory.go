package retrieval

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document
	chunks map[string][]Chunk
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]Document),
		chunks: make(map[string][]Chunk),
	}
}

func (s *MemoryStore) SaveDocument(_ context.Context, doc Document, chunks []Chunk) error {
	if doc.Collection == "" {
		doc.Collection = DefaultCollection
	}
	doc.Chunks = len(chunks)

	cp := make([]Chunk, len(chunks))
	copy(cp, chunks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.chunks[doc.ID] = cp
	return nil
}

func (s *MemoryStore) ListDocuments(_ context.Context) ([]Document, error) {
	s.mu.RLock()
	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return errors.NotFound("document", id)
	}
	delete(s.docs, id)
	delete(s.chunks, id)
	return nil
}

func (s *MemoryStore) HasCollection(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, d := range s.docs {
		if matches(id, d, collection) {
			return true, nil
		}
	}
	return false, nil
}

// Search scores chunks by cosine similarity. Ties keep document id and chunk
// order so results are stable between calls.
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int) ([]dag.Passage, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	var hits []dag.Passage
	for id, d := range s.docs {
		if !matches(id, d, collection) {
			continue
		}
		for _, c := range s.chunks[id] {
			hits = append(hits, dag.Passage{
				ID:         id + ":" + strconv.Itoa(c.Index),
				Collection: collection,
				Text:       c.Text,
				Source:     d.Filename,
				Score:      cosine(embedding, c.Embedding),
			})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// matches reports whether a document belongs to key, which is either a
// collection name or the document's own id.
func matches(id string, d Document, key string) bool {
	return d.Collection == key || id == key
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
