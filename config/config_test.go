package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Server        struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Engine struct {
		NodeTimeout time.Duration `mapstructure:"node_timeout"`
		MaxParallel int           `mapstructure:"max_parallel"`
	} `mapstructure:"engine"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", `
name: ragflow
environment: staging
server:
  port: 9090
engine:
  node_timeout: 45s
  max_parallel: 2
`)
	var cfg testConfig
	if err := LoadConfig("ragflow", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "ragflow" || cfg.Environment != "staging" {
		t.Fatalf("expected squashed service fields, got %+v", cfg.ServiceConfig)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Engine.NodeTimeout != 45*time.Second {
		t.Fatalf("expected 45s node timeout, got %v", cfg.Engine.NodeTimeout)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "name: ragflow\nserver:\n  port: 9090\n")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("ENGINE_MAX_PARALLEL", "8")

	var cfg testConfig
	if err := LoadConfig("ragflow", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Engine.MaxParallel != 8 {
		t.Fatalf("expected max_parallel 8, got %d", cfg.Engine.MaxParallel)
	}
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("ragflow", &cfg, WithConfigFile("/nonexistent/config.yml")); err != nil {
		t.Fatalf("expected success with missing file, got %v", err)
	}
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "name: [unclosed\n")
	var cfg testConfig
	if err := LoadConfig("ragflow", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for unparsable config file")
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolver_SearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/ragflow/config.yml": true,
		"./config.yml":             true,
		"./.env":                   true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("ragflow", LoaderConfig{})
	if files.ConfigFile != "./cmd/ragflow/config.yml" {
		t.Fatalf("expected cmd config to win, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Fatalf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolver_ExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./config.yml": true}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("ragflow", LoaderConfig{ConfigFile: "custom.yml", EnvFile: "custom.env"})
	if files.ConfigFile != "custom.yml" || files.EnvFile != "custom.env" {
		t.Fatalf("expected explicit files, got %+v", files)
	}
}

func TestLoadConfig_LoadsEnvFileThroughFileSystem(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./.env": true}}
	var cfg testConfig
	if err := LoadConfig("ragflow", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !slices.Equal(fs.loaded, []string{"./.env"}) {
		t.Fatalf("expected ./.env to be loaded, got %v", fs.loaded)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("LLM_BASE_URL")
	want := []string{"llm_base_url", "llm.base.url", "llm.base_url"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{name: "valid", cfg: ServiceConfig{Name: "ragflow"}},
		{name: "missing name", cfg: ServiceConfig{}, wantErr: "config.name"},
		{name: "bad environment", cfg: ServiceConfig{Name: "ragflow", Environment: "qa"}, wantErr: "config.environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestServiceConfig_DevelopmentEnablesDebug(t *testing.T) {
	cfg := ServiceConfig{Name: "ragflow"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Fatalf("expected development with debug, got %+v", cfg)
	}
}
