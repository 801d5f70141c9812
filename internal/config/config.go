package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CodedAgent/codeagent/internal/models"
)

// RollbackMode selects when staged changes are reverted automatically.
type RollbackMode string

const (
	// RollbackModeManual never rolls back automatically.
	RollbackModeManual RollbackMode = "manual"
	// RollbackModeAutoOnAbort rolls back staged changes when a run aborts.
	RollbackModeAutoOnAbort RollbackMode = "auto_on_abort"
)

// Parser selections accepted by test_format and lint_format.
var (
	TestFormats = []string{"auto", "go", "cargo", "pytest", "jest"}
	LintFormats = []string{"auto", "eslint", "pylint", "clippy"}
)

// CommandsConfig holds the shell command run for each step action.
// An empty command means the action has nothing to run.
type CommandsConfig struct {
	Analyze  string `yaml:"analyze"`
	Modify   string `yaml:"modify"`
	Test     string `yaml:"test"`
	Lint     string `yaml:"lint"`
	Commit   string `yaml:"commit"`
	Rollback string `yaml:"rollback"`

	// Fix applies auto-fixable suggestions before a retry
	Fix string `yaml:"fix"`
}

// For returns the command configured for action.
func (c CommandsConfig) For(action models.ActionType) string {
	switch action {
	case models.ActionAnalyze:
		return c.Analyze
	case models.ActionModify:
		return c.Modify
	case models.ActionTestRun:
		return c.Test
	case models.ActionLintCheck:
		return c.Lint
	case models.ActionCommit:
		return c.Commit
	case models.ActionRollback:
		return c.Rollback
	default:
		return ""
	}
}

// RollbackConfig controls automatic rollback of staged changes.
type RollbackConfig struct {
	Mode RollbackMode `yaml:"mode"`
}

// HistoryConfig controls the per-attempt journal.
type HistoryConfig struct {
	// Enabled turns attempt recording on
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite file; empty means $CODEAGENT_HOME/history/attempts.db
	DBPath string `yaml:"db_path"`

	// KeepDays prunes attempts older than this many days (0 = keep forever)
	KeepDays int `yaml:"keep_days"`
}

// Config represents codeagent configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// DryRun simulates every step without running commands
	DryRun bool `yaml:"dry_run"`

	// StepTimeout bounds a single step attempt (0 = no timeout)
	StepTimeout time.Duration `yaml:"step_timeout"`

	// Commands maps step actions to shell commands
	Commands CommandsConfig `yaml:"commands"`

	// TestFormat and LintFormat select the output parsers
	TestFormat string `yaml:"test_format"`
	LintFormat string `yaml:"lint_format"`

	Rollback RollbackConfig `yaml:"rollback"`
	History  HistoryConfig  `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		LogDir:      ".codeagent/logs",
		DryRun:      false,
		StepTimeout: 10 * time.Minute,
		Commands: CommandsConfig{
			Test: "go test ./...",
		},
		TestFormat: "auto",
		LintFormat: "auto",
		Rollback: RollbackConfig{
			Mode: RollbackModeManual,
		},
		History: HistoryConfig{
			Enabled:  true,
			KeepDays: 30,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults; a malformed one is an error.
// Only keys present in the file override defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are written as strings ("90s", "5m")
	type yamlConfig struct {
		LogLevel    string         `yaml:"log_level"`
		LogDir      string         `yaml:"log_dir"`
		DryRun      bool           `yaml:"dry_run"`
		StepTimeout string         `yaml:"step_timeout"`
		Commands    CommandsConfig `yaml:"commands"`
		TestFormat  string         `yaml:"test_format"`
		LintFormat  string         `yaml:"lint_format"`
		Rollback    RollbackConfig `yaml:"rollback"`
		History     HistoryConfig  `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.DryRun {
		cfg.DryRun = true
	}
	if yamlCfg.StepTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid step_timeout format %q: %w", yamlCfg.StepTimeout, err)
		}
		cfg.StepTimeout = timeout
	}
	if yamlCfg.TestFormat != "" {
		cfg.TestFormat = yamlCfg.TestFormat
	}
	if yamlCfg.LintFormat != "" {
		cfg.LintFormat = yamlCfg.LintFormat
	}

	// A present commands section replaces the defaults per key, so
	// `test: ""` disables the default test command.
	if commands := section(rawMap, "commands"); commands != nil {
		set := func(key string, dst *string, val string) {
			if _, ok := commands[key]; ok {
				*dst = val
			}
		}
		set("analyze", &cfg.Commands.Analyze, yamlCfg.Commands.Analyze)
		set("modify", &cfg.Commands.Modify, yamlCfg.Commands.Modify)
		set("test", &cfg.Commands.Test, yamlCfg.Commands.Test)
		set("lint", &cfg.Commands.Lint, yamlCfg.Commands.Lint)
		set("commit", &cfg.Commands.Commit, yamlCfg.Commands.Commit)
		set("rollback", &cfg.Commands.Rollback, yamlCfg.Commands.Rollback)
		set("fix", &cfg.Commands.Fix, yamlCfg.Commands.Fix)
	}

	if rollback := section(rawMap, "rollback"); rollback != nil {
		if _, ok := rollback["mode"]; ok {
			cfg.Rollback.Mode = yamlCfg.Rollback.Mode
		}
	}

	if history := section(rawMap, "history"); history != nil {
		if _, ok := history["enabled"]; ok {
			cfg.History.Enabled = yamlCfg.History.Enabled
		}
		if _, ok := history["db_path"]; ok {
			cfg.History.DBPath = yamlCfg.History.DBPath
		}
		if _, ok := history["keep_days"]; ok {
			cfg.History.KeepDays = yamlCfg.History.KeepDays
		}
	}

	return cfg, nil
}

func section(raw map[string]interface{}, key string) map[string]interface{} {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// LoadConfigFromDir loads configuration from .codeagent/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".codeagent", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(timeout *time.Duration, logDir *string, dryRun *bool, historyEnabled *bool) {
	if timeout != nil {
		c.StepTimeout = *timeout
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if dryRun != nil {
		c.DryRun = *dryRun
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout must be >= 0, got %v", c.StepTimeout)
	}

	if !oneOf(c.TestFormat, TestFormats) {
		return fmt.Errorf("invalid test_format %q, must be one of: %v", c.TestFormat, TestFormats)
	}
	if !oneOf(c.LintFormat, LintFormats) {
		return fmt.Errorf("invalid lint_format %q, must be one of: %v", c.LintFormat, LintFormats)
	}

	switch c.Rollback.Mode {
	case RollbackModeManual, RollbackModeAutoOnAbort:
	default:
		return fmt.Errorf("invalid rollback.mode %q, must be one of: manual, auto_on_abort", c.Rollback.Mode)
	}

	if c.History.KeepDays < 0 {
		return fmt.Errorf("history.keep_days must be >= 0, got %d", c.History.KeepDays)
	}

	return nil
}

// HistoryDBPath returns the configured journal path, falling back to the
// per-user default under CodeagentHome.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return DefaultHistoryDBPath()
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
