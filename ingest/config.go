package ingest

import "github.com/kbukum/ragflow/validation"

// DefaultMaxUploadBytes is the upload limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// Config bounds uploads and shapes chunking.
type Config struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	ChunkSize      int   `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap   int   `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	// EmbedConcurrency caps in-flight embedding calls per upload.
	EmbedConcurrency int `yaml:"embed_concurrency" mapstructure:"embed_concurrency"`
}

func (c *Config) ApplyDefaults() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = 200
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = 4
	}
}

func (c *Config) Validate() error {
	v := validation.New()
	v.Min("ingest.chunk_size", c.ChunkSize, 1)
	v.Custom(c.ChunkOverlap < c.ChunkSize, "ingest.chunk_overlap", "must be smaller than chunk_size")
	v.Min("ingest.embed_concurrency", c.EmbedConcurrency, 1)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
