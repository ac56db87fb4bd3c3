package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/ragflow/cli"
	"github.com/kbukum/ragflow/dag"
)

const (
	ragWorkflow  = "../cmd/ragflow/workflows/rag.hcl"
	chatWorkflow = "../cmd/ragflow/workflows/chat.yaml"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := cli.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"deploy"}},
		{"bad global flag", []string{"-nope", "version"}},
		{"validate without file", []string{"validate"}},
		{"run without query", []string{"run", "-f", chatWorkflow}},
		{"token without subject", []string{"token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if code := exitCode(err); code != 2 {
				t.Fatalf("expected exit code 2, got %d (%v)", code, err)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Fatal("expected a version line")
	}
}

func TestValidate(t *testing.T) {
	cycle := writeFile(t, "cycle.json", `{
		"nodes": [
			{"id": "A", "type": "query"},
			{"id": "B", "type": "generation", "config": {"model": "llama3", "temperature": 0}},
			{"id": "C", "type": "output"}
		],
		"edges": [{"from": "A", "to": "B"}, {"from": "B", "to": "A"}, {"from": "B", "to": "C"}]
	}`)
	unknownKind := writeFile(t, "kind.hcl", "node \"x\" {\n  type = \"summarize\"\n}\n")

	tests := []struct {
		name       string
		file       string
		wantCode   int
		wantStdout string
	}{
		{"hcl ok", ragWorkflow, 0, "ok (4 nodes, 3 edges)"},
		{"yaml ok", chatWorkflow, 0, "ok (3 nodes, 2 edges)"},
		{"cycle", cycle, 1, "workflow contains a cycle"},
		{"unknown kind", unknownKind, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := run(t, "validate", "-f", tt.file)
			if tt.wantCode == 0 && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantCode != 0 && exitCode(err) != tt.wantCode {
				t.Fatalf("expected exit code %d, got %v", tt.wantCode, err)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Fatalf("expected stdout to contain %q, got %q", tt.wantStdout, stdout)
			}
		})
	}
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	_, _, err := run(t, "validate", "-f", writeFile(t, "flow.toml", ""))
	if err == nil || exitCode(err) != -1 {
		t.Fatalf("expected a plain error, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"hello back"},"done":true}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := writeFile(t, "config.yml", "name: ragflow-cli-test\n"+
		"logging:\n  level: error\n"+
		"llm:\n  base_url: "+srv.URL+"\n  retry:\n    max_attempts: 1\n")

	stdout, _, err := run(t, "-config", cfg, "run", "-f", chatWorkflow, "-q", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res dag.ExecutionResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("expected JSON result, got %q: %v", stdout, err)
	}
	if res.Status != dag.RunSucceeded || res.FinalOutput == nil || *res.FinalOutput != "hello back" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Trace) != 3 {
		t.Fatalf("expected 3 trace steps, got %d", len(res.Trace))
	}
}

func TestRunCommand_RefusesInvalidWorkflow(t *testing.T) {
	cfg := writeFile(t, "config.yml", "name: ragflow-cli-test\nlogging:\n  level: error\n"+
		"llm:\n  base_url: http://127.0.0.1:1\n  retry:\n    max_attempts: 1\n")
	noOutput := writeFile(t, "flow.yaml", `
nodes:
  - {id: q, type: query}
  - {id: gen, type: generation, config: {model: llama3, temperature: 0}}
edges:
  - {from: q, to: gen}
`)
	_, stderr, err := run(t, "-config", cfg, "run", "-f", noOutput, "-q", "hi")
	if exitCode(err) != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(stderr, "workflow requires at least one output node") {
		t.Fatalf("expected problem on stderr, got %q", stderr)
	}
}

func TestToken(t *testing.T) {
	secret := strings.Repeat("s", 32)
	withSecret := writeFile(t, "config.yml", "name: ragflow-cli-test\nserver:\n  auth:\n    secret: "+secret+"\n")
	stdout, _, err := run(t, "-config", withSecret, "token", "-sub", "editor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(stdout), "."); len(parts) != 3 {
		t.Fatalf("expected a JWT, got %q", stdout)
	}

	noSecret := writeFile(t, "config.yml", "name: ragflow-cli-test\n")
	if _, _, err := run(t, "-config", noSecret, "token", "-sub", "editor"); exitCode(err) != 1 {
		t.Fatalf("expected exit code 1 without a secret, got %v", err)
	}
}
