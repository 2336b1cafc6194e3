package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds configuration for the scan workflow. Values come from an
// optional TOML file and are overridden by command-line flags.
type Config struct {
	// AWS settings
	Region        string `toml:"region"`
	SBOMBucket    string `toml:"sbom_bucket"`
	ResultsBucket string `toml:"results_bucket"`

	// Polling settings
	MaxAttempts  int           `toml:"max_attempts"`
	PollInterval time.Duration `toml:"poll_interval"`

	// Report settings
	OutputDir string `toml:"output_dir"`
	TopCap    int    `toml:"top_cap"` // max CRITICAL/HIGH findings listed

	// Behavior settings
	FailOnCritical bool `toml:"fail_on_critical"` // exit 1 if CRITICAL findings present
	PersistResults bool `toml:"persist_results"`  // write raw results to the results bucket

	// Cache settings
	CacheTTL time.Duration `toml:"cache_ttl"`
	NoCache  bool          `toml:"no_cache"`

	// API settings
	Timeout time.Duration `toml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:    30,
		PollInterval:   10 * time.Second,
		OutputDir:      "./sbom-analysis",
		TopCap:         10,
		FailOnCritical: true,
		PersistResults: true,
		CacheTTL:       24 * time.Hour,
		Timeout:        60 * time.Second,
	}
}

// DefaultConfigPath is where LoadConfig looks when no path is given.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sbomscan", "config.toml")
}

// LoadConfig reads a TOML config file over the defaults. A missing file at
// the default path is not an error; a missing file at an explicit path is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// A bare TOML integer decodes as nanoseconds, which would make the poll
	// loop effectively delay-free. Durations must be strings like "10s".
	if cfg.PollInterval > 0 && cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("poll_interval %s in %s is below 1s; use a duration string like \"10s\"", cfg.PollInterval, path)
	}
	if cfg.Timeout > 0 && cfg.Timeout < time.Second {
		return nil, fmt.Errorf("timeout %s in %s is below 1s; use a duration string like \"60s\"", cfg.Timeout, path)
	}
	return cfg, nil
}
