// Package config loads and validates the application configuration from a
// TOML file, with environment variable overrides for secrets.
package config
