package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/plugsync/plugsync/pkg/telemetry"
)

// Config holds the engine settings. Values are resolved in three
// layers: built-in defaults, then the YAML config file, then
// PLUGSYNC_* environment variables.
type Config struct {
	// RCFile is the shell rc file carrying the plugins array.
	RCFile string `yaml:"rc_file" env:"PLUGSYNC_RC_FILE" validate:"required"`

	// StateFile is the persisted plugin record file.
	StateFile string `yaml:"state_file" env:"PLUGSYNC_STATE_FILE" validate:"required"`

	// PluginsDir is where fetched plugins are installed.
	PluginsDir string `yaml:"plugins_dir" env:"PLUGSYNC_PLUGINS_DIR" validate:"required"`

	// InitScript is the generated script that sources every loaded
	// plugin; the rc file sources it once.
	InitScript string `yaml:"init_script" env:"PLUGSYNC_INIT_SCRIPT" validate:"required"`

	// GitBin is the git executable used by the default fetcher.
	GitBin string `yaml:"git_bin" env:"PLUGSYNC_GIT_BIN" validate:"required"`

	// GitBaseURL is the remote base a two-segment source id resolves
	// against (e.g. "https://github.com").
	GitBaseURL string `yaml:"git_base_url" env:"PLUGSYNC_GIT_BASE_URL" validate:"required,url"`

	// FetchTimeout bounds every fetcher invocation. A fetch must never
	// hang a command indefinitely.
	FetchTimeout Duration `yaml:"fetch_timeout" env:"PLUGSYNC_FETCH_TIMEOUT" validate:"required"`

	// Journal configures the reconciliation history journal.
	Journal JournalConfig `yaml:"journal"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging"`
}

// Duration is a time.Duration that unmarshals from "60s"-style text
// in both YAML and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// JournalConfig configures the sqlite-backed history journal.
type JournalConfig struct {
	// Enabled toggles journaling. Commands never fail because the
	// journal is unavailable.
	Enabled bool `yaml:"enabled" env:"PLUGSYNC_JOURNAL_ENABLED"`

	// Path is the journal database file.
	Path string `yaml:"path" env:"PLUGSYNC_JOURNAL_PATH"`
}

// Default returns the built-in configuration, rooted in the user's
// home directory.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".local", "share", "plugsync")

	return &Config{
		RCFile:       filepath.Join(home, ".zshrc"),
		StateFile:    filepath.Join(dataDir, "state"),
		PluginsDir:   filepath.Join(dataDir, "plugins"),
		InitScript:   filepath.Join(dataDir, "init.zsh"),
		GitBin:       "git",
		GitBaseURL:   "https://github.com",
		FetchTimeout: Duration(60 * time.Second),
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "journal.db"),
		},
		Logging: telemetry.LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "plugsync", "config.yaml")
}

// Load resolves the effective configuration. A missing config file is
// not an error when path is the default location; an explicitly given
// path must exist.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if explicit {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.FetchTimeout.Std() < time.Second {
		return fmt.Errorf("invalid configuration: fetch_timeout must be at least 1s, got %s", c.FetchTimeout.Std())
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("invalid configuration: journal.path is required when the journal is enabled")
	}
	return nil
}
