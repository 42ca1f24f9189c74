package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTPAddr)
	}

	if cfg.InputDir != "data/input" {
		t.Errorf("Expected INPUT_DIR default 'data/input', got '%s'", cfg.InputDir)
	}

	if cfg.OutputDir != "data/output" {
		t.Errorf("Expected OUTPUT_DIR default 'data/output', got '%s'", cfg.OutputDir)
	}

	if !cfg.MonitorEnabled {
		t.Error("Expected MONITOR_ENABLED default true")
	}

	if cfg.MonitorInterval != time.Second {
		t.Errorf("Expected polling interval default 1s, got %v", cfg.MonitorInterval)
	}

	if len(cfg.FileExtensions) != 2 || cfg.FileExtensions[0] != ".hl7" || cfg.FileExtensions[1] != ".txt" {
		t.Errorf("Expected file extensions default [.hl7 .txt], got %v", cfg.FileExtensions)
	}

	if cfg.TerminologyBaseURL != "https://smt.esante.gouv.fr" {
		t.Errorf("Expected terminology base URL default, got '%s'", cfg.TerminologyBaseURL)
	}

	if cfg.APIKey != "" {
		t.Errorf("Expected empty API key by default, got '%s'", cfg.APIKey)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("API_KEY", "secret")
	t.Setenv("MONITOR_ENABLED", "false")
	t.Setenv("MONITOR_POLLING_INTERVAL_MS", "250")
	t.Setenv("MONITOR_FILE_EXTENSIONS", ".HL7, .dat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTP_ADDR ':9090', got '%s'", cfg.HTTPAddr)
	}

	if cfg.APIKey != "secret" {
		t.Errorf("Expected API key 'secret', got '%s'", cfg.APIKey)
	}

	if cfg.MonitorEnabled {
		t.Error("Expected monitoring disabled")
	}

	if cfg.MonitorInterval != 250*time.Millisecond {
		t.Errorf("Expected polling interval 250ms, got %v", cfg.MonitorInterval)
	}

	if len(cfg.FileExtensions) != 2 || cfg.FileExtensions[0] != ".hl7" || cfg.FileExtensions[1] != ".dat" {
		t.Errorf("Expected normalized extensions [.hl7 .dat], got %v", cfg.FileExtensions)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("MONITOR_ENABLED", "maybe")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid MONITOR_ENABLED")
	}

	os.Clearenv()
	t.Setenv("MONITOR_POLLING_INTERVAL_MS", "soon")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid MONITOR_POLLING_INTERVAL_MS")
	}
}
