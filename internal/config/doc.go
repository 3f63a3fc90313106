// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > environment
// variables > YAML config > defaults. Besides the HTTP settings it names the
// mappings file used to resolve credentials, the service bindings to
// construct, and fixed binding values that take priority over the mappings.
package config
