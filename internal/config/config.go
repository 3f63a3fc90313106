package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMappingsFile   = "config/mappings.json"
	defaultLogLevel       = "info"
)

// DefaultServices are the bindings enabled when nothing else is configured.
var DefaultServices = []string{"object-storage", "watson-text-to-speech"}

var validate = validator.New()

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string        `validate:"required"`
	ShutdownGracePeriod  time.Duration `validate:"gte=0"`
	ReadHeaderTimeout    time.Duration `validate:"gte=0"`
	WriteTimeout         time.Duration `validate:"gte=0"`
	IdleTimeout          time.Duration `validate:"gte=0"`
	EnableRequestLogging bool
	RateLimitRPS         float64 `validate:"gte=0"`
	RateLimitBurst       int     `validate:"gte=0"`
	LogLevel             string  `validate:"oneof=debug info warn error"`

	// MappingsFile lists the search patterns for every configuration key.
	MappingsFile string `validate:"required"`
	// ConfigRoot is the base directory for relative file: search patterns.
	ConfigRoot string
	// Services are the bindings to construct at startup, in order.
	Services []string `validate:"required,min=1,dive,required"`
	// RequireAllServices aborts startup when any binding fails.
	RequireAllServices bool
	// Bindings are fixed values consulted before the mappings.
	Bindings map[string]string

	HTTPTimeout        time.Duration `validate:"gt=0"`
	HTTPMaxRetries     int           `validate:"gte=0"`
	HTTPCircuitBreaker bool
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	LogLevel             string            `yaml:"log_level"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
	MappingsFile         string            `yaml:"mappings_file"`
	ConfigRoot           string            `yaml:"config_root"`
	Services             []string          `yaml:"services"`
	RequireAllServices   *bool             `yaml:"require_all_services"`
	Bindings             map[string]string `yaml:"bindings"`
	HTTPClient           yamlHTTPClient    `yaml:"http_client"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// yamlHTTPClient represents the outbound client section in YAML.
type yamlHTTPClient struct {
	Timeout        string `yaml:"timeout"`
	MaxRetries     *int   `yaml:"max_retries"`
	CircuitBreaker *bool  `yaml:"circuit_breaker"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	ServicesStr    *string
	MappingsFile   *string
	ConfigRoot     *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         30 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		MappingsFile:         defaultMappingsFile,
		ConfigRoot:           ".",
		Services:             append([]string(nil), DefaultServices...),
		RequireAllServices:   true,
		Bindings:             map[string]string{},
		HTTPTimeout:          30 * time.Second,
		HTTPMaxRetries:       2,
		HTTPCircuitBreaker:   true,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"http_client.timeout", yamlCfg.HTTPClient.Timeout, &cfg.HTTPTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.MappingsFile != "" {
		cfg.MappingsFile = yamlCfg.MappingsFile
	}
	if yamlCfg.ConfigRoot != "" {
		cfg.ConfigRoot = yamlCfg.ConfigRoot
	}
	if len(yamlCfg.Services) > 0 {
		cfg.Services = normalizeServices(yamlCfg.Services)
	}
	if yamlCfg.RequireAllServices != nil {
		cfg.RequireAllServices = *yamlCfg.RequireAllServices
	}
	for key, value := range yamlCfg.Bindings {
		cfg.Bindings[key] = value
	}

	if yamlCfg.HTTPClient.MaxRetries != nil {
		cfg.HTTPMaxRetries = *yamlCfg.HTTPClient.MaxRetries
	}
	if yamlCfg.HTTPClient.CircuitBreaker != nil {
		cfg.HTTPCircuitBreaker = *yamlCfg.HTTPClient.CircuitBreaker
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if path := strings.TrimSpace(os.Getenv("MAPPINGS_FILE")); path != "" {
		cfg.MappingsFile = path
	}

	if root := strings.TrimSpace(os.Getenv("CONFIG_ROOT")); root != "" {
		cfg.ConfigRoot = root
	}

	if raw := strings.TrimSpace(os.Getenv("SERVICES")); raw != "" {
		if services := parseServices(raw); len(services) > 0 {
			cfg.Services = services
		}
	}

	if raw := strings.TrimSpace(os.Getenv("REQUIRE_ALL_SERVICES")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("REQUIRE_ALL_SERVICES: %w", err)
		}
		cfg.RequireAllServices = value
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.ServicesStr != nil && *overrides.ServicesStr != "" {
		services := parseServices(*overrides.ServicesStr)
		if len(services) == 0 {
			return fmt.Errorf("parse services: no service names in %q", *overrides.ServicesStr)
		}
		cfg.Services = services
	}

	if overrides.MappingsFile != nil && *overrides.MappingsFile != "" {
		cfg.MappingsFile = *overrides.MappingsFile
	}

	if overrides.ConfigRoot != nil && *overrides.ConfigRoot != "" {
		cfg.ConfigRoot = *overrides.ConfigRoot
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// parseServices splits a comma-separated list of service names.
func parseServices(raw string) []string {
	return normalizeServices(strings.Split(raw, ","))
}

// normalizeServices trims names and drops blanks and duplicates, keeping order.
func normalizeServices(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
