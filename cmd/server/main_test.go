package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/config"
)

func TestCLIDefaultsToServe(t *testing.T) {
	app, flags, serveCmd, _ := newCLI()

	command, err := app.Parse([]string{"--services", "object-storage", "--port", "9090"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if command != serveCmd.FullCommand() {
		t.Fatalf("expected default command serve, got %q", command)
	}

	overrides := flags.overrides()
	if overrides.ServicesStr == nil || *overrides.ServicesStr != "object-storage" {
		t.Fatalf("expected services override, got %v", overrides.ServicesStr)
	}
	if overrides.Port == nil || *overrides.Port != "9090" {
		t.Fatalf("expected port override, got %v", overrides.Port)
	}
	if overrides.MappingsFile != nil || overrides.LogLevel != nil {
		t.Fatalf("expected unset flags to leave overrides nil")
	}
	if overrides.RateLimitRPS != nil || overrides.RateLimitBurst != nil {
		t.Fatalf("expected negative rate limit defaults to be ignored")
	}
}

func TestCLIBindingsCommand(t *testing.T) {
	app, flags, _, bindingsCmd := newCLI()

	command, err := app.Parse([]string{"bindings", "--mappings", "m.json", "--rate-limit-rps", "0"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if command != bindingsCmd.FullCommand() {
		t.Fatalf("expected bindings command, got %q", command)
	}

	overrides := flags.overrides()
	if overrides.MappingsFile == nil || *overrides.MappingsFile != "m.json" {
		t.Fatalf("expected mappings override, got %v", overrides.MappingsFile)
	}
	if overrides.RateLimitRPS == nil || *overrides.RateLimitRPS != 0 {
		t.Fatalf("expected explicit zero rate limit to be kept")
	}
}

func TestWriteBindings(t *testing.T) {
	services := binding.NewManager()
	if err := services.Register("object-storage", &bytes.Buffer{}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	var out bytes.Buffer
	if err := writeBindings(&out, services); err != nil {
		t.Fatalf("writeBindings returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "SERVICE") {
		t.Fatalf("expected header row, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "object-storage") || !strings.Contains(lines[1], "*bytes.Buffer") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestPrintBindingsResolvesConfiguredServices(t *testing.T) {
	dir := t.TempDir()
	mappings := filepath.Join(dir, "mappings.json")
	if err := os.WriteFile(mappings, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write mappings: %v", err)
	}

	cfg := config.Config{
		MappingsFile:       mappings,
		ConfigRoot:         dir,
		Services:           []string{"watson-text-to-speech"},
		RequireAllServices: true,
		Bindings: map[string]string{
			"watson_text_to_speech_username": "user",
			"watson_text_to_speech_password": "pass",
		},
		HTTPTimeout: time.Second,
	}

	var out bytes.Buffer
	if err := printBindings(cfg, zaptest.NewLogger(t), &out); err != nil {
		t.Fatalf("printBindings returned error: %v", err)
	}
	if !strings.Contains(out.String(), "*texttospeechv1.TextToSpeechV1") {
		t.Fatalf("expected text to speech client, got %q", out.String())
	}

	delete(cfg.Bindings, "watson_text_to_speech_password")
	if err := printBindings(cfg, zaptest.NewLogger(t), &out); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}
