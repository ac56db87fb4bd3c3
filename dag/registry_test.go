package dag_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/dag/testutil"
)

func TestRegistry_Resolve(t *testing.T) {
	reg := dag.DefaultRegistry()
	want := []dag.NodeKind{dag.KindGeneration, dag.KindOutput, dag.KindQuery, dag.KindRetrieval}
	if diff := cmp.Diff(want, reg.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	caps := map[dag.NodeKind]dag.Capability{
		dag.KindQuery:      dag.CapabilityNone,
		dag.KindRetrieval:  dag.CapabilityRetrieval,
		dag.KindGeneration: dag.CapabilityGeneration,
		dag.KindOutput:     dag.CapabilityNone,
	}
	for kind, capability := range caps {
		r, err := reg.Resolve(kind)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", kind, err)
		}
		if r.Capability != capability {
			t.Fatalf("expected %s capability for %s, got %s", capability, kind, r.Capability)
		}
		if r.Final != (kind == dag.KindOutput) {
			t.Fatalf("unexpected Final=%v for %s", r.Final, kind)
		}
	}

	if _, err := reg.Resolve("summarize"); !stderrors.Is(err, dag.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRegistry_RegisterDefaultsCapability(t *testing.T) {
	reg := dag.NewRegistry()
	reg.Register(dag.Registration{Kind: "echo", Handler: dag.HandlerFunc(func(_ context.Context, c dag.Call) (string, error) {
		return c.Query, nil
	})})
	r, err := reg.Resolve("echo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Capability != dag.CapabilityNone {
		t.Fatalf("expected capability none, got %s", r.Capability)
	}
}

func TestRegistry_Decorate(t *testing.T) {
	reg := dag.DefaultRegistry()
	var seen []string
	reg.Decorate(func(r dag.Registration) dag.Handler {
		next := r.Handler
		return dag.HandlerFunc(func(ctx context.Context, call dag.Call) (string, error) {
			seen = append(seen, call.Node.ID)
			return next.Handle(ctx, call)
		})
	})

	// The linear chain keeps the calls sequential.
	e := dag.NewEngine(reg, dag.EngineConfig{})
	res := execute(t, e, linear().Build(), "hello", dag.Collaborators{Generator: testutil.NewFakeGenerator("hi")})
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Trace)
	}
	if diff := cmp.Diff([]string{"q", "gen", "out"}, seen); diff != "" {
		t.Fatalf("decorated calls mismatch (-want +got):\n%s", diff)
	}
}
