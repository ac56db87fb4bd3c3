// Package config loads service configuration with Viper.
//
// LoadConfig reads cmd/<service>/config.yml (or an explicit file), loads a
// .env file when one is found, and lets environment variables override file
// values: SERVER_PORT sets server.port, ENGINE_NODE_TIMEOUT sets
// engine.node_timeout.
//
// Config structs follow one convention: ApplyDefaults fills zero values and
// Validate reports the first invalid field.
package config
