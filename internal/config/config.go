// File: internal/config/config.go

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSelections are queried when no selection name is given
var DefaultSelections = []string{"PRIMARY", "SECONDARY", "CLIPBOARD"}

// ConfigPaths holds all relevant paths for the application
type ConfigPaths struct {
	BaseDir    string // Directory holding the config file
	ConfigFile string // Path to config.yaml
	DataDir    string // Directory for application data
	DBFile     string // Path to the history database
}

// Config holds all application configuration
type Config struct {
	// X display to connect to; empty means $DISPLAY
	Display string `json:"display" yaml:"display"`

	// Selections queried when none are given on the command line
	Selections []string `json:"selections" yaml:"selections"`

	Poll    PollConfig    `json:"poll" yaml:"poll"`
	Atoms   AtomsConfig   `json:"atoms" yaml:"atoms"`
	Owner   OwnerConfig   `json:"owner" yaml:"owner"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Log     LogConfig     `json:"log" yaml:"log"`
	History HistoryConfig `json:"history" yaml:"history"`

	SystemPaths ConfigPaths `json:"-" yaml:"-"`
}

// PollConfig bounds the wait for an owner's TARGETS answer
type PollConfig struct {
	Attempts int   `json:"attempts" yaml:"attempts"`
	DelayMs  int64 `json:"delay_ms" yaml:"delay_ms"`
}

// Delay returns DelayMs as a duration
func (p PollConfig) Delay() time.Duration {
	return time.Duration(p.DelayMs) * time.Millisecond
}

// AtomsConfig controls atom lookups
type AtomsConfig struct {
	Cache bool `json:"cache" yaml:"cache"`
}

// OwnerConfig controls how owner windows are described
type OwnerConfig struct {
	NameFallback bool `json:"name_fallback" yaml:"name_fallback"`
}

// OutputConfig controls result printing
type OutputConfig struct {
	Color string `json:"color" yaml:"color"` // "auto", "always" or "never"
	JSON  bool   `json:"json" yaml:"json"`
}

// LogConfig holds logging-related configuration
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// HistoryConfig holds query history settings
type HistoryConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	DBPath    string `json:"db_path" yaml:"db_path"`
	KeepItems int    `json:"keep_items" yaml:"keep_items"`
}

// getUserConfigDir and getUserDataDir are swapped out in tests
var (
	getUserConfigDir = os.UserConfigDir
	getUserDataDir   = defaultDataDir
)

func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// GetConfigPaths returns the configuration and data paths. Nothing is
// created on disk.
func GetConfigPaths() (*ConfigPaths, error) {
	baseDir := os.Getenv("XSELQ_CONFIG_DIR")
	if baseDir == "" {
		configDir, err := getUserConfigDir()
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(configDir, "xselq")
	}

	dataDir := os.Getenv("XSELQ_DATA_DIR")
	if dataDir == "" {
		dir, err := getUserDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(dir, "xselq")
	}

	return &ConfigPaths{
		BaseDir:    baseDir,
		ConfigFile: filepath.Join(baseDir, "config.yaml"),
		DataDir:    dataDir,
		DBFile:     filepath.Join(dataDir, "history.db"),
	}, nil
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	paths, err := GetConfigPaths()
	if err != nil {
		paths = &ConfigPaths{
			BaseDir:    ".",
			ConfigFile: "config.yaml",
			DataDir:    ".",
			DBFile:     "history.db",
		}
	}

	return &Config{
		Selections: append([]string(nil), DefaultSelections...),
		Poll: PollConfig{
			Attempts: 5,
			DelayMs:  100,
		},
		Atoms: AtomsConfig{
			Cache: true,
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		History: HistoryConfig{
			Enabled:   false,
			DBPath:    paths.DBFile,
			KeepItems: 500,
		},
		SystemPaths: *paths,
	}
}

// Load reads the configuration from configPath, or from the default
// location when configPath is empty. A missing file yields the defaults.
// The result is not validated; callers apply their overrides and then
// call Validate.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		configPath = cfg.SystemPaths.ConfigFile
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg.SystemPaths.ConfigFile = configPath

	overrideFromEnv(cfg)
	return cfg, nil
}

// Validate checks values that would make a run misbehave
func (c *Config) Validate() error {
	if c.Poll.Attempts < 1 {
		return fmt.Errorf("poll.attempts must be at least 1, got %d", c.Poll.Attempts)
	}
	if c.Poll.DelayMs < 0 {
		return fmt.Errorf("poll.delay_ms must not be negative, got %d", c.Poll.DelayMs)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.History.KeepItems < 0 {
		return fmt.Errorf("history.keep_items must not be negative, got %d", c.History.KeepItems)
	}
	return nil
}

// Save writes the configuration to configPath as YAML
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// overrideFromEnv overrides configuration values from environment variables
func overrideFromEnv(config *Config) {
	if val := os.Getenv("XSELQ_DISPLAY"); val != "" {
		config.Display = val
	}
	if val := os.Getenv("XSELQ_SELECTIONS"); val != "" {
		if names := SplitSelections(val); len(names) > 0 {
			config.Selections = names
		}
	}

	if val := os.Getenv("XSELQ_POLL_ATTEMPTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Poll.Attempts = n
		}
	}
	if val := os.Getenv("XSELQ_POLL_DELAY_MS"); val != "" {
		if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Poll.DelayMs = ms
		}
	}

	if val := os.Getenv("XSELQ_COLOR"); val != "" {
		config.Output.Color = val
	}
	if val := os.Getenv("XSELQ_LOG_LEVEL"); val != "" {
		config.Log.Level = val
	}
	if val := os.Getenv("XSELQ_HISTORY"); val != "" {
		config.History.Enabled = val == "true"
	}
}

// SplitSelections splits a comma or whitespace separated list of names
func SplitSelections(val string) []string {
	return strings.FieldsFunc(val, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
