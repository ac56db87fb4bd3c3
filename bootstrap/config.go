package bootstrap

import "github.com/kbukum/ragflow/config"

// Config is satisfied by any struct that embeds config.ServiceConfig and
// implements ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
