package app

import (
	"fmt"

	"github.com/kbukum/ragflow/config"
	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/database"
	"github.com/kbukum/ragflow/ingest"
	"github.com/kbukum/ragflow/llm"
	"github.com/kbukum/ragflow/observability"
	"github.com/kbukum/ragflow/redis"
	"github.com/kbukum/ragflow/retrieval"
	"github.com/kbukum/ragflow/server"
)

// Config is the configuration of the ragflow service. It is loaded by
// config.LoadConfig from config.yml, .env files and the environment.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Engine        dag.EngineConfig     `yaml:"engine" mapstructure:"engine"`
	LLM           llm.Config           `yaml:"llm" mapstructure:"llm"`
	VectorStore   retrieval.Config     `yaml:"vector_store" mapstructure:"vector_store"`
	Ingest        ingest.Config        `yaml:"ingest" mapstructure:"ingest"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.LLM.ApplyDefaults()
	c.VectorStore.ApplyDefaults()
	c.Ingest.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", &c.Server},
		{"engine", &c.Engine},
		{"llm", &c.LLM},
		{"vector_store", &c.VectorStore},
		{"ingest", &c.Ingest},
		{"database", &c.Database},
		{"redis", &c.Redis},
		{"observability", &c.Observability},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
