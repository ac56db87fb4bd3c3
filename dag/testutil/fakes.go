package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/ragflow/dag"
)

// RetrieveCall records one Retrieve invocation.
type RetrieveCall struct {
	Collection string
	Query      string
	TopK       int
}

// FakeRetriever serves passages from an in-memory map of collections.
// A collection missing from the map answers dag.ErrCollectionNotFound.
type FakeRetriever struct {
	Collections map[string][]dag.Passage
	// Err, when set, is returned by every call.
	Err error
	// Fn, when set, replaces the map lookup.
	Fn func(ctx context.Context, collection, query string, topK int) ([]dag.Passage, error)

	mu    sync.Mutex
	calls []RetrieveCall
}

var _ dag.Retriever = (*FakeRetriever)(nil)

// NewFakeRetriever creates a retriever with one text passage per entry.
func NewFakeRetriever(collections map[string][]string) *FakeRetriever {
	r := &FakeRetriever{Collections: make(map[string][]dag.Passage, len(collections))}
	for name, texts := range collections {
		for _, text := range texts {
			r.Collections[name] = append(r.Collections[name], dag.Passage{Collection: name, Text: text})
		}
	}
	return r
}

func (r *FakeRetriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]dag.Passage, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RetrieveCall{Collection: collection, Query: query, TopK: topK})
	r.mu.Unlock()

	if r.Fn != nil {
		return r.Fn(ctx, collection, query, topK)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	passages, ok := r.Collections[collection]
	if !ok {
		return nil, dag.ErrCollectionNotFound
	}
	if topK < len(passages) {
		passages = passages[:topK]
	}
	return passages, nil
}

// Calls returns the recorded invocations.
func (r *FakeRetriever) Calls() []RetrieveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RetrieveCall(nil), r.calls...)
}

// GenerateCall records one Generate invocation.
type GenerateCall struct {
	Prompt      string
	Model       string
	Temperature float64
}

// FakeGenerator answers with a fixed reply, or with the prompt itself when
// Reply is empty.
type FakeGenerator struct {
	Reply string
	Err   error
	Fn    func(ctx context.Context, prompt, model string, temperature float64) (string, error)

	mu    sync.Mutex
	calls []GenerateCall
}

var _ dag.Generator = (*FakeGenerator)(nil)

func NewFakeGenerator(reply string) *FakeGenerator {
	return &FakeGenerator{Reply: reply}
}

func (g *FakeGenerator) Generate(ctx context.Context, prompt, model string, temperature float64) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, GenerateCall{Prompt: prompt, Model: model, Temperature: temperature})
	g.mu.Unlock()

	if g.Fn != nil {
		return g.Fn(ctx, prompt, model, temperature)
	}
	if g.Err != nil {
		return "", g.Err
	}
	if g.Reply == "" {
		return prompt, nil
	}
	return g.Reply, nil
}

// Calls returns the recorded invocations.
func (g *FakeGenerator) Calls() []GenerateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GenerateCall(nil), g.calls...)
}

// LastPrompt returns the prompt of the most recent call, or "".
func (g *FakeGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return ""
	}
	return g.calls[len(g.calls)-1].Prompt
}
