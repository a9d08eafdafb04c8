package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Package config handles loading, validation, and access to application configuration.

// Config holds the application configuration.
type Config struct {
	Terminal struct {
		DefaultShell string `yaml:"default_shell,omitempty"` // Optional: force a specific shell
		Backend      string `yaml:"backend,omitempty"`       // "native" (creack/pty) or "portable" (go-pty)
		DefaultCwd   string `yaml:"default_cwd,omitempty"`   // Falls back to the user home directory
		Cols         int    `yaml:"cols,omitempty"`          // Initial columns before the first fit
		Rows         int    `yaml:"rows,omitempty"`          // Initial rows before the first fit
	} `yaml:"terminal,omitempty"`

	EnvUpdate struct {
		// SettleDelay is how long the overlay must be visible before the
		// buffer is cleared. ApplyDelay is how long the shell gets to
		// apply exports and redraw its prompt before the overlay drops.
		// Both are timing-based on purpose; prompt redraw completion is
		// not observable without deeper escape parsing.
		SettleDelay Duration `yaml:"settle_delay,omitempty"`
		ApplyDelay  Duration `yaml:"apply_delay,omitempty"`
	} `yaml:"env_update,omitempty"`

	Log struct {
		Level string `yaml:"level,omitempty"` // e.g., debug, info, warn, error
		File  string `yaml:"file,omitempty"`  // log file path; the TUI owns stdout
	} `yaml:"log,omitempty"`
}

const (
	defaultConfigDirName  = ".kubecli"
	defaultConfigFileName = "kubecli.yaml"

	// BackendNative is the creack/pty adapter; it supports live resize.
	BackendNative = "native"
	// BackendPortable is the go-pty adapter; resize-after-spawn may be
	// a no-op on some platforms it covers.
	BackendPortable = "portable"

	defaultSettleDelay = Duration(150 * time.Millisecond)
	defaultApplyDelay  = Duration(400 * time.Millisecond)
	defaultCols        = 80
	defaultRows        = 24
)

// Duration decodes human-readable yaml values like "150ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load tries to load configuration from standard locations.
// Priority: ./{fileName}, ~/{dirName}/config.yaml
func Load() (*Config, error) {
	cfg, err := loadFromFile(defaultConfigFileName)
	if err == nil {
		applyDefaults(cfg)
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config from %s: %w", defaultConfigFileName, err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %w", err)
	}
	homeConfigPath := filepath.Join(homeDir, defaultConfigDirName, "config.yaml")
	cfg, err = loadFromFile(homeConfigPath)
	if err == nil {
		applyDefaults(cfg)
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config from %s: %w", homeConfigPath, err)
	}

	// No config file found; defaults are sufficient to run.
	defaultCfg := &Config{}
	applyDefaults(defaultCfg)
	return defaultCfg, nil
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err // Propagate error (including os.IsNotExist)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml %s: %w", filePath, err)
	}

	return &cfg, nil
}

// applyDefaults ensures essential fields have default values if not set.
func applyDefaults(cfg *Config) {
	if cfg.Terminal.Backend == "" {
		cfg.Terminal.Backend = BackendNative
	}
	if cfg.Terminal.Cols <= 0 {
		cfg.Terminal.Cols = defaultCols
	}
	if cfg.Terminal.Rows <= 0 {
		cfg.Terminal.Rows = defaultRows
	}
	if cfg.EnvUpdate.SettleDelay <= 0 {
		cfg.EnvUpdate.SettleDelay = defaultSettleDelay
	}
	if cfg.EnvUpdate.ApplyDelay <= 0 {
		cfg.EnvUpdate.ApplyDelay = defaultApplyDelay
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "kubecli.log")
	}
}
