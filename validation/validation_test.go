package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/ragflow/errors"
)

func TestValidator_Accumulates(t *testing.T) {
	v := New()
	v.Required("collection", "  ").
		Range("top_k", 0, 1, 50).
		RangeFloat("temperature", 1.5, 0, 1).
		OneOf("format", "xml", []string{"text", "json"})

	if len(v.Errors()) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(v.Errors()), v.Errors())
	}
	if got := v.Errors()[2].String(); got != "temperature must be between 0 and 1 (got 1.5)" {
		t.Fatalf("unexpected temperature message %q", got)
	}

	appErr := v.Validate()
	if appErr == nil || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", appErr)
	}
	if !strings.HasPrefix(appErr.Message, "collection: is required; top_k:") {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestValidator_NoErrors(t *testing.T) {
	v := New().Required("model", "llama3").RangeFloat("temperature", 0, 0, 1).OptionalUUID("id", "")
	if v.Validate() != nil {
		t.Fatalf("expected nil, got %v", v.Errors())
	}
}

func TestOptionalUUID(t *testing.T) {
	v := New().OptionalUUID("workflow_id", "not-a-uuid")
	if !v.HasErrors() {
		t.Fatal("expected invalid uuid error")
	}
}

type runRequest struct {
	Query string `json:"query" validate:"required,max=10"`
	TopK  int    `json:"top_k" validate:"gte=1"`
}

func TestStruct(t *testing.T) {
	err := Struct(runRequest{Query: "", TopK: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "query: is required") {
		t.Fatalf("expected json field name in %q", appErr.Message)
	}
	if !strings.Contains(appErr.Message, "top_k: must be at least 1") {
		t.Fatalf("expected numeric message in %q", appErr.Message)
	}

	if err := Struct(runRequest{Query: "hi", TopK: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MaxParallel"); got != "max_parallel" {
		t.Fatalf("expected max_parallel, got %q", got)
	}
}
