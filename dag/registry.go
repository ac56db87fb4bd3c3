package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownKind is wrapped by Resolve for kinds without a registration.
var ErrUnknownKind = stderrors.New("unknown node kind")

// Capability is the collaborator a handler needs.
type Capability string

const (
	CapabilityNone       Capability = "none"
	CapabilityRetrieval  Capability = "retrieval"
	CapabilityGeneration Capability = "generation"
)

// Input is the output of one upstream node.
type Input struct {
	From       string
	Capability Capability
	Text       string
}

// Call is everything a handler sees of the run. Only the collaborator
// matching the registration's capability is set.
type Call struct {
	Node      Node
	Query     string
	Inputs    []Input
	Retriever Retriever
	Generator Generator
}

// Handler executes one node and returns its output text.
type Handler interface {
	Handle(ctx context.Context, call Call) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, call Call) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, call Call) (string, error) {
	return f(ctx, call)
}

// Registration binds a node kind to its handler.
type Registration struct {
	Kind       NodeKind
	Capability Capability
	Handler    Handler
	// NewConfig returns a config with defaults applied, ready for decoding.
	NewConfig func() NodeConfig
	// Final marks kinds whose output can become the run's final output.
	Final bool
}

// Registry maps node kinds to registrations. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[NodeKind]Registration
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[NodeKind]Registration)}
}

// Register adds or replaces the registration of reg.Kind.
func (r *Registry) Register(reg Registration) {
	if reg.Capability == "" {
		reg.Capability = CapabilityNone
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[reg.Kind] = reg
}

// Resolve returns the registration of kind.
func (r *Registry) Resolve(kind NodeKind) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.kinds[kind]
	if !ok {
		return Registration{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	return reg, nil
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]NodeKind, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Decorate replaces every registered handler with wrap(registration).
func (r *Registry) Decorate(wrap func(Registration) Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, reg := range r.kinds {
		reg.Handler = wrap(reg)
		r.kinds[k] = reg
	}
}

// DefaultRegistry registers the four built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Registration{
		Kind:       KindQuery,
		Capability: CapabilityNone,
		Handler:    HandlerFunc(handleQuery),
		NewConfig:  func() NodeConfig { return &QueryConfig{} },
	})
	r.Register(Registration{
		Kind:       KindRetrieval,
		Capability: CapabilityRetrieval,
		Handler:    HandlerFunc(handleRetrieval),
		NewConfig:  func() NodeConfig { return NewRetrievalConfig() },
	})
	r.Register(Registration{
		Kind:       KindGeneration,
		Capability: CapabilityGeneration,
		Handler:    HandlerFunc(handleGeneration),
		NewConfig:  func() NodeConfig { return NewGenerationConfig() },
	})
	r.Register(Registration{
		Kind:       KindOutput,
		Capability: CapabilityNone,
		Handler:    HandlerFunc(handleOutput),
		NewConfig:  func() NodeConfig { return &OutputConfig{} },
		Final:      true,
	})
	return r
}
