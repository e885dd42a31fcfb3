// Package config loads semsearch tool configuration from YAML, layered over
// sensible defaults.
package config
