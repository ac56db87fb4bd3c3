package dag_test

import (
	"testing"

	"github.com/kbukum/ragflow/dag"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name, custom, question, retrieved, want string
	}{
		{"bare question", "", "why?", "", "why?"},
		{"default context", "", "why?", "ctx", "Use the following context to answer the question:\n\nctx\n\nQuestion: why?"},
		{"template", "Q: {query} C: {context}", "why?", "ctx", "Q: why? C: ctx"},
		{"template without context", "Answer {query}", "why?", "", "Answer why?"},
		{"instruction", "Be brief.", "why?", "", "Be brief.\n\nwhy?"},
		{"instruction with context", "Be brief.", "why?", "ctx", "Be brief.\n\nUse the following context to answer the question:\n\nctx\n\nQuestion: why?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dag.BuildPrompt(tt.custom, tt.question, tt.retrieved); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderPassages(t *testing.T) {
	got := dag.RenderPassages([]dag.Passage{{Text: " first "}, {Text: ""}, {Text: "second"}})
	if got != "first\n\nsecond" {
		t.Fatalf("expected two passages joined, got %q", got)
	}
}
