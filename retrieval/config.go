package retrieval

import (
	"time"

	"github.com/kbukum/ragflow/resilience"
	"github.com/kbukum/ragflow/validation"
)

const (
	BackendMemory   = "memory"
	BackendPGVector = "pgvector"
)

// Config selects and configures the vector store.
type Config struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	// DSN is a PostgreSQL connection string, used by the pgvector backend.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	// Dimensions must match the embedding model (768 for nomic-embed-text).
	Dimensions     int           `yaml:"dimensions" mapstructure:"dimensions"`
	MaxConns       int32         `yaml:"max_conns" mapstructure:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	AutoMigrate    bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`

	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 768
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	c.Retry.ApplyDefaults()
}

func (c *Config) Validate() error {
	v := validation.New()
	v.OneOf("vector_store.backend", c.Backend, []string{BackendMemory, BackendPGVector})
	if c.Backend == BackendPGVector {
		v.Required("vector_store.dsn", c.DSN)
	}
	v.Range("vector_store.dimensions", c.Dimensions, 1, 16000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
