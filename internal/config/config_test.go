package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"PORT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "MAPPINGS_FILE", "CONFIG_ROOT", "SERVICES", "REQUIRE_ALL_SERVICES"} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if !slices.Equal(cfg.Services, DefaultServices) {
		t.Fatalf("expected default services %v, got %v", DefaultServices, cfg.Services)
	}
	if cfg.MappingsFile != defaultMappingsFile {
		t.Fatalf("unexpected mappings file: %s", cfg.MappingsFile)
	}
	if !cfg.RequireAllServices {
		t.Fatalf("expected strict binding by default")
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SERVICES", "watson-text-to-speech, object-storage , watson-text-to-speech")
	t.Setenv("REQUIRE_ALL_SERVICES", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if want := []string{"watson-text-to-speech", "object-storage"}; !slices.Equal(cfg.Services, want) {
		t.Fatalf("expected services %v, got %v", want, cfg.Services)
	}
	if cfg.RequireAllServices {
		t.Fatalf("expected lenient binding")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUIRE_ALL_SERVICES", "sometimes")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for invalid boolean")
	}
}

func TestLoadYAMLThenCLI(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "7000"
log_level: warn
mappings_file: /etc/bindings/mappings.json
services:
  - object-storage
require_all_services: false
enable_request_logging: false
rate_limit:
  rps: 0
bindings:
  object_storage_region: london
http_client:
  timeout: 5s
  max_retries: 4
  circuit_breaker: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	port := "7100"
	services := "watson-text-to-speech"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port, ServicesStr: &services})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7100" {
		t.Fatalf("expected CLI port, got %s", cfg.Port)
	}
	if !slices.Equal(cfg.Services, []string{"watson-text-to-speech"}) {
		t.Fatalf("expected CLI services, got %v", cfg.Services)
	}
	if cfg.LogLevel != "warn" || cfg.MappingsFile != "/etc/bindings/mappings.json" {
		t.Fatalf("YAML values not applied: %+v", cfg)
	}
	if cfg.RequireAllServices || cfg.EnableRequestLogging {
		t.Fatalf("expected YAML booleans to be applied")
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.Bindings["object_storage_region"] != "london" {
		t.Fatalf("expected binding override, got %v", cfg.Bindings)
	}
	if cfg.HTTPTimeout != 5*time.Second || cfg.HTTPMaxRetries != 4 || cfg.HTTPCircuitBreaker {
		t.Fatalf("unexpected http client settings: %+v", cfg)
	}
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9100")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"7000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("expected env port, got %s", cfg.Port)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	badDuration := filepath.Join(dir, "duration.yaml")
	if err := os.WriteFile(badDuration, []byte("write_timeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(&CLIOverrides{ConfigFile: badDuration}); err == nil {
		t.Fatalf("expected error for invalid duration")
	}

	badLevel := filepath.Join(dir, "level.yaml")
	if err := os.WriteFile(badLevel, []byte("log_level: chatty\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(&CLIOverrides{ConfigFile: badLevel}); err == nil {
		t.Fatalf("expected validation error for log level")
	}

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseServices(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got := parseServices("object-storage, ,watson-text-to-speech,object-storage")
		if want := []string{"object-storage", "watson-text-to-speech"}; !slices.Equal(got, want) {
			t.Fatalf("unexpected services: %v", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := parseServices(" , "); len(got) != 0 {
			t.Fatalf("expected no services, got %v", got)
		}
	})

	t.Run("cli rejects empty list", func(t *testing.T) {
		clearEnv(t)
		blank := " , "
		if _, err := Load(&CLIOverrides{ServicesStr: &blank}); err == nil {
			t.Fatalf("expected error for empty service list")
		}
	})
}

func TestLoadSampleConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(&CLIOverrides{ConfigFile: filepath.Join("..", "..", "config", "config.yaml")})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !slices.Equal(cfg.Services, DefaultServices) {
		t.Fatalf("expected sample services %v, got %v", DefaultServices, cfg.Services)
	}
	if cfg.ConfigRoot != "config" {
		t.Fatalf("expected config root from sample, got %s", cfg.ConfigRoot)
	}
	if cfg.Bindings["watson_text_to_speech_url"] == "" {
		t.Fatalf("expected sample binding override")
	}
	if cfg.HTTPMaxRetries != 2 || !cfg.HTTPCircuitBreaker {
		t.Fatalf("unexpected http client settings: retries=%d breaker=%v", cfg.HTTPMaxRetries, cfg.HTTPCircuitBreaker)
	}
}
