package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved dials configuration.
type Config struct {
	APIBase        string
	APIToken       string
	RequestTimeout time.Duration
	RetryDelay     time.Duration
	MaxRetries     int
	MaxParallel    int

	LogLevel string
	LogFile  string

	DesktopNotifications bool
}

const (
	defaultConfigPath     = "~/.config/dials/config.toml"
	defaultLogFile        = "~/.local/state/dials/dials.log"
	defaultAPIBase        = "127.0.0.1:8750"
	defaultRequestTimeout = 5 * time.Second
	defaultRetryDelay     = 5 * time.Second
	defaultMaxRetries     = 1
	defaultMaxParallel    = 8
	defaultLogLevel       = "info"
)

type rawConfig struct {
	APIBase               string `toml:"api_base"`
	APIToken              string `toml:"api_token"`
	RequestTimeoutSeconds *int   `toml:"request_timeout_seconds"`
	RetryDelaySeconds     *int   `toml:"retry_delay_seconds"`
	MaxRetries            *int   `toml:"max_retries"`
	MaxParallelLoads      *int   `toml:"max_parallel_loads"`
	Logging               struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
	Notifications struct {
		Desktop bool `toml:"desktop"`
	} `toml:"notifications"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		RequestTimeout: defaultRequestTimeout,
		RetryDelay:     defaultRetryDelay,
		MaxRetries:     defaultMaxRetries,
		MaxParallel:    defaultMaxParallel,
		LogLevel:       defaultLogLevel,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.APIToken = strings.TrimSpace(raw.APIToken)

	if raw.RequestTimeoutSeconds != nil {
		if *raw.RequestTimeoutSeconds <= 0 {
			return Config{}, fmt.Errorf("request_timeout_seconds must be positive")
		}
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeoutSeconds) * time.Second
	}
	if raw.RetryDelaySeconds != nil {
		if *raw.RetryDelaySeconds < 0 {
			return Config{}, fmt.Errorf("retry_delay_seconds must not be negative")
		}
		cfg.RetryDelay = time.Duration(*raw.RetryDelaySeconds) * time.Second
	}
	if raw.MaxRetries != nil {
		if *raw.MaxRetries < 0 {
			return Config{}, fmt.Errorf("max_retries must not be negative")
		}
		cfg.MaxRetries = *raw.MaxRetries
	}
	if raw.MaxParallelLoads != nil {
		if *raw.MaxParallelLoads <= 0 {
			return Config{}, fmt.Errorf("max_parallel_loads must be positive")
		}
		cfg.MaxParallel = *raw.MaxParallelLoads
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Logging.Level)); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return Config{}, fmt.Errorf("unknown logging.level %q", raw.Logging.Level)
		}
	}
	if v := strings.TrimSpace(raw.Logging.File); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.DesktopNotifications = raw.Notifications.Desktop

	return cfg, nil
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
