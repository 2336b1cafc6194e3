package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDurationStrings(t *testing.T) {
	path := writeConfig(t, `
region = "us-east-1"
results_bucket = "my-results"
max_attempts = 12
poll_interval = "30s"
timeout = "90s"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Region != "us-east-1" || cfg.ResultsBucket != "my-results" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.MaxAttempts != 12 {
		t.Errorf("max_attempts = %d, want 12", cfg.MaxAttempts)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("poll_interval = %s, want 30s", cfg.PollInterval)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("timeout = %s, want 90s", cfg.Timeout)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `region = "eu-west-1"`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MaxAttempts != 30 || cfg.PollInterval != 10*time.Second {
		t.Errorf("defaults not preserved: attempts=%d interval=%s", cfg.MaxAttempts, cfg.PollInterval)
	}
	if !cfg.FailOnCritical {
		t.Error("fail_on_critical default should be true")
	}
}

func TestLoadConfigRejectsBareIntegerInterval(t *testing.T) {
	// A bare integer decodes as nanoseconds and would strip the delay from
	// the poll loop.
	path := writeConfig(t, `poll_interval = 10`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected sub-second poll_interval to be rejected")
	}
}

func TestLoadConfigRejectsBareIntegerTimeout(t *testing.T) {
	path := writeConfig(t, `timeout = 60`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected sub-second timeout to be rejected")
	}
}

func TestLoadConfigMissingExplicitPath(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
