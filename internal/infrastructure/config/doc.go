// Package config provides service configuration.
//
// Configuration comes from environment variables (envconfig) or,
// alternatively, from a TOML file selected by CONFIG_FILE. Defaults are
// production-ready; every field can be overridden.
package config
