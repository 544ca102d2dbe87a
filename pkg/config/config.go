package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "deskutil.yaml"

const defaultsSource = "<defaults>"

// Config captures the user-adjustable knobs for both tools.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
	Keylog   KeylogConfig   `mapstructure:"keylog" yaml:"keylog"`
	Accounts AccountsConfig `mapstructure:"accounts" yaml:"accounts"`
	DebugLog DebugLogConfig `mapstructure:"debug_log" yaml:"debug_log"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `mapstructure:"-" yaml:"-"`
}

// PathsConfig controls the files the tools append to.
type PathsConfig struct {
	KeyLog     string `mapstructure:"key_log" yaml:"key_log"`
	ConsoleLog string `mapstructure:"console_log" yaml:"console_log"`
	DebugLog   string `mapstructure:"debug_log" yaml:"debug_log"`
}

// KeylogConfig tunes the key event pipeline.
type KeylogConfig struct {
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// AccountsConfig tunes account enumeration.
type AccountsConfig struct {
	PasswdPath   string `mapstructure:"passwd_path" yaml:"passwd_path"`
	MinRegularID int    `mapstructure:"min_regular_id" yaml:"min_regular_id"`
}

// DebugLogConfig controls rotation of the duplicated console output.
type DebugLogConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			KeyLog:     "thing.txt",
			ConsoleLog: "console.log",
			DebugLog:   "debug.txt",
		},
		Keylog: KeylogConfig{
			QueueSize: 256,
		},
		Accounts: AccountsConfig{
			PasswdPath:   "/etc/passwd",
			MinRegularID: 1000,
		},
		DebugLog: DebugLogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Source: defaultsSource,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("paths.key_log", d.Paths.KeyLog)
	v.SetDefault("paths.console_log", d.Paths.ConsoleLog)
	v.SetDefault("paths.debug_log", d.Paths.DebugLog)
	v.SetDefault("keylog.queue_size", d.Keylog.QueueSize)
	v.SetDefault("accounts.passwd_path", d.Accounts.PasswdPath)
	v.SetDefault("accounts.min_regular_id", d.Accounts.MinRegularID)
	v.SetDefault("debug_log.max_size_mb", d.DebugLog.MaxSizeMB)
	v.SetDefault("debug_log.max_backups", d.DebugLog.MaxBackups)
	v.SetDefault("debug_log.max_age_days", d.DebugLog.MaxAgeDays)
	v.SetDefault("debug_log.compress", d.DebugLog.Compress)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./deskutil.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("stat config file %q: %w", candidate, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(candidate)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}
	if err := v.UnmarshalExact(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config file %q: %w", candidate, err)
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.KeyLog) == "" {
		return errors.New("paths.key_log must not be empty")
	}
	if strings.TrimSpace(c.Paths.ConsoleLog) == "" {
		return errors.New("paths.console_log must not be empty")
	}
	if strings.TrimSpace(c.Paths.DebugLog) == "" {
		return errors.New("paths.debug_log must not be empty")
	}
	if filepath.Clean(c.Paths.KeyLog) == filepath.Clean(c.Paths.ConsoleLog) {
		return errors.New("paths.key_log and paths.console_log must differ")
	}
	if c.Keylog.QueueSize <= 0 {
		return errors.New("keylog.queue_size must be positive")
	}
	if strings.TrimSpace(c.Accounts.PasswdPath) == "" {
		return errors.New("accounts.passwd_path must not be empty")
	}
	if c.Accounts.MinRegularID < 0 {
		return errors.New("accounts.min_regular_id must not be negative")
	}
	if c.DebugLog.MaxSizeMB < 0 || c.DebugLog.MaxBackups < 0 || c.DebugLog.MaxAgeDays < 0 {
		return errors.New("debug_log limits must not be negative")
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// YAML renders the resolved configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.Paths.KeyLog = cleanPath(c.Paths.KeyLog, defaults.Paths.KeyLog)
	c.Paths.ConsoleLog = cleanPath(c.Paths.ConsoleLog, defaults.Paths.ConsoleLog)
	c.Paths.DebugLog = cleanPath(c.Paths.DebugLog, defaults.Paths.DebugLog)
	c.Accounts.PasswdPath = cleanPath(c.Accounts.PasswdPath, defaults.Accounts.PasswdPath)

	if c.Keylog.QueueSize <= 0 {
		c.Keylog.QueueSize = defaults.Keylog.QueueSize
	}
	if c.Accounts.MinRegularID == 0 {
		c.Accounts.MinRegularID = defaults.Accounts.MinRegularID
	}
	if lvl, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = lvl
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
}

func cleanPath(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	cleaned := filepath.Clean(trimmed)
	if cleaned == "." {
		return fallback
	}
	return cleaned
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "text":
		return "console", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
