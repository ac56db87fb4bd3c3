package redis

import (
	"time"

	"github.com/kbukum/ragflow/validation"
)

// Config holds Redis connection and run-history settings.
type Config struct {
	// Enabled turns run history on. When off, run endpoints report the
	// history as unavailable.
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries"`
	// DialTimeout, ReadTimeout and WriteTimeout are duration strings.
	DialTimeout  string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	KeyPrefix          string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	RunTTL             time.Duration `yaml:"run_ttl" mapstructure:"run_ttl"`
	MaxRunsPerWorkflow int           `yaml:"max_runs_per_workflow" mapstructure:"max_runs_per_workflow"`
}

func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "ragflow"
	}
	if c.RunTTL <= 0 {
		c.RunTTL = 24 * time.Hour
	}
	if c.MaxRunsPerWorkflow <= 0 {
		c.MaxRunsPerWorkflow = 50
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New()
	v.Required("redis.addr", c.Addr)
	v.Min("redis.pool_size", c.PoolSize, 1)
	for field, d := range map[string]string{
		"redis.dial_timeout":  c.DialTimeout,
		"redis.read_timeout":  c.ReadTimeout,
		"redis.write_timeout": c.WriteTimeout,
	} {
		_, err := time.ParseDuration(d)
		v.Custom(err == nil, field, "must be a duration")
	}
	v.Range("redis.max_runs_per_workflow", c.MaxRunsPerWorkflow, 1, 1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
