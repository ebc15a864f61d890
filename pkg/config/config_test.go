package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("Load() on absent default-location file = %v, want defaults", err)
	}
	if cfg.GitBin != "git" {
		t.Errorf("GitBin = %q, want default git", cfg.GitBin)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Fatal("Load() accepted a missing explicitly-given config file")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rc_file: /custom/zshrc
fetch_timeout: 90s
journal:
  enabled: false
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.RCFile != "/custom/zshrc" {
		t.Errorf("RCFile = %q, want /custom/zshrc", cfg.RCFile)
	}
	if cfg.FetchTimeout.Std() != 90*time.Second {
		t.Errorf("FetchTimeout = %s, want 90s", cfg.FetchTimeout.Std())
	}
	if cfg.Journal.Enabled {
		t.Error("Journal.Enabled = true, want overridden to false")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	// Untouched fields keep their defaults.
	if cfg.GitBaseURL != "https://github.com" {
		t.Errorf("GitBaseURL = %q, want default", cfg.GitBaseURL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rc_file: /from/file\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	t.Setenv("PLUGSYNC_RC_FILE", "/from/env")
	t.Setenv("PLUGSYNC_FETCH_TIMEOUT", "2m")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.RCFile != "/from/env" {
		t.Errorf("RCFile = %q, want environment to win", cfg.RCFile)
	}
	if cfg.FetchTimeout.Std() != 2*time.Minute {
		t.Errorf("FetchTimeout = %s, want 2m", cfg.FetchTimeout.Std())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty rc file", func(c *Config) { c.RCFile = "" }},
		{"tiny fetch timeout", func(c *Config) { c.FetchTimeout = Duration(time.Millisecond) }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad base url", func(c *Config) { c.GitBaseURL = "not a url" }},
		{"journal enabled without path", func(c *Config) { c.Journal.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted %s", tt.name)
			}
		})
	}
}
