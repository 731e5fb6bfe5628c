package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPollIntervalMS = 30
	DefaultMaxTries       = 500
)

// WaitConfig bounds the completion waits of asynchronous commands.
type WaitConfig struct {
	// PollIntervalMS is the delay between two state probes.
	PollIntervalMS int `yaml:"poll_interval_ms"`
	// MaxTries is how many probes a wait makes before giving up.
	MaxTries int `yaml:"max_tries"`
}

// PollInterval returns the probe delay as a duration.
func (w WaitConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// LogConfig configures the structured diagnostic log.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
	// File additionally writes JSON lines to a rotated file when set.
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ActionLogConfig configures the per-command action log.
type ActionLogConfig struct {
	Enabled bool `yaml:"enabled"`
	// File is the log file path (default: ~/.local/share/deskctl/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files"`
	// IncludeKeys records typed key sequences (default: false)
	IncludeKeys bool `yaml:"include_keys"`
}

// Config is the effective deskctl configuration.
type Config struct {
	// Display is used when DISPLAY is unset and a command names no display.
	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`

	// StrictStatus reports every nonzero backend status as an error.
	StrictStatus bool `yaml:"strict_status"`

	Wait       WaitConfig      `yaml:"wait"`
	SocketPath string          `yaml:"socket_path,omitempty"`
	Log        LogConfig       `yaml:"log"`
	ActionLog  ActionLogConfig `yaml:"action_log"`
}

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() *Config {
	return &Config{
		Wait: WaitConfig{
			PollIntervalMS: DefaultPollIntervalMS,
			MaxTries:       DefaultMaxTries,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		ActionLog: ActionLogConfig{
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// DefaultActionLogPath is where the action log goes when action_log.file is unset.
func DefaultActionLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "deskctl-actions.log")
	}
	return filepath.Join(home, ".local", "share", "deskctl", "actions.log")
}

// ActionLogPath returns the configured action log path or the default.
func (c *Config) ActionLogPath() string {
	if strings.TrimSpace(c.ActionLog.File) != "" {
		return expandHome(c.ActionLog.File)
	}
	return DefaultActionLogPath()
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.ContainsRune(c.Display, 0) {
		return &ValidationError{Path: "display", Err: fmt.Errorf("display must not contain a NUL byte")}
	}
	if c.Wait.PollIntervalMS <= 0 {
		return &ValidationError{Path: "wait.poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be > 0")}
	}
	if c.Wait.MaxTries <= 0 {
		return &ValidationError{Path: "wait.max_tries", Err: fmt.Errorf("max_tries must be > 0")}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &ValidationError{Path: "log.format", Err: fmt.Errorf("format must be one of: console, json")}
	}
	if c.Log.MaxSizeMB <= 0 {
		return &ValidationError{Path: "log.max_size_mb", Err: fmt.Errorf("max_size_mb must be > 0")}
	}
	if c.Log.MaxBackups < 0 {
		return &ValidationError{Path: "log.max_backups", Err: fmt.Errorf("max_backups must be >= 0")}
	}
	if c.Log.MaxAgeDays < 0 {
		return &ValidationError{Path: "log.max_age_days", Err: fmt.Errorf("max_age_days must be >= 0")}
	}

	if c.ActionLog.MaxSizeMB <= 0 {
		return &ValidationError{Path: "action_log.max_size_mb", Err: fmt.Errorf("max_size_mb must be > 0")}
	}
	if c.ActionLog.MaxFiles < 0 {
		return &ValidationError{Path: "action_log.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
