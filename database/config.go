package database

import (
	"time"

	"github.com/kbukum/ragflow/validation"
)

const DriverSQLite = "sqlite"

// Config holds database connection configuration.
type Config struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	// DSN is the SQLite file name or URI; ":memory:" keeps everything in
	// one connection.
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	MaxOpenConns int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	// ConnMaxLifetime is a duration string such as "1h".
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	MaxRetries      int    `yaml:"max_retries" mapstructure:"max_retries"`

	AutoMigrate bool `yaml:"auto_migrate" mapstructure:"auto_migrate"`
	// SlowQueryThreshold is a duration string; slower queries log at warn.
	SlowQueryThreshold string `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// LogLevel is one of silent, error, warn, info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.DSN == "" {
		c.DSN = "ragflow.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

func (c *Config) Validate() error {
	v := validation.New()
	v.OneOf("database.driver", c.Driver, []string{DriverSQLite})
	v.Required("database.dsn", c.DSN)
	v.Min("database.max_open_conns", c.MaxOpenConns, 1)
	v.Custom(c.MaxIdleConns <= c.MaxOpenConns, "database.max_idle_conns", "must not exceed max_open_conns")
	v.Custom(isDuration(c.ConnMaxLifetime), "database.conn_max_lifetime", "must be a duration")
	v.Custom(isDuration(c.SlowQueryThreshold), "database.slow_query_threshold", "must be a duration")
	v.OneOf("database.log_level", c.LogLevel, []string{"silent", "error", "warn", "info"})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func isDuration(s string) bool {
	_, err := time.ParseDuration(s)
	return err == nil
}
