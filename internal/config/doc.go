// Package config defines the application configuration structure and the
// loader that populates it from environment variables (STICKER_ prefix)
// and an optional YAML config file.
package config
