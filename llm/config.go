package llm

import (
	"time"

	"github.com/kbukum/ragflow/resilience"
	"github.com/kbukum/ragflow/validation"
)

// Config configures an Adapter.
type Config struct {
	// Dialect selects the provider mapping ("ollama", "openai").
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Model is used when a generation node names none.
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	Timeout        time.Duration                   `yaml:"timeout" mapstructure:"timeout"`
	Retry          resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

func (c *Config) ApplyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "ollama"
	}
	if c.BaseURL == "" && c.Dialect == "ollama" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "llama3"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "nomic-embed-text"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	c.Retry.ApplyDefaults()
	c.CircuitBreaker.ApplyDefaults()
	if c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = c.Dialect
	}
}

func (c *Config) Validate() error {
	v := validation.New()
	v.Required("llm.dialect", c.Dialect)
	v.Required("llm.base_url", c.BaseURL)
	v.Min("llm.max_tokens", c.MaxTokens, 1)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
