package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != defaultAPIBase {
		t.Fatalf("APIBase = %q, want %q", cfg.APIBase, defaultAPIBase)
	}
	if cfg.RetryDelay != 5*time.Second || cfg.MaxRetries != 1 {
		t.Fatalf("retry policy = %v/%d, want 5s/1", cfg.RetryDelay, cfg.MaxRetries)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.LogDir() != filepath.Dir(wantLog) {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir(), filepath.Dir(wantLog))
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base = "  https://settings.example.com  "
api_token = " s3cret "
request_timeout_seconds = 10
retry_delay_seconds = 2
max_retries = 3
max_parallel_loads = 4

[logging]
level = " DEBUG "
file = "  ~/logs/dials.log  "

[notifications]
desktop = true
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != "https://settings.example.com" {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if cfg.APIToken != "s3cret" {
		t.Fatalf("APIToken = %q, want s3cret", cfg.APIToken)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("timeouts = %v/%v", cfg.RequestTimeout, cfg.RetryDelay)
	}
	if cfg.MaxRetries != 3 || cfg.MaxParallel != 4 {
		t.Fatalf("MaxRetries/MaxParallel = %d/%d, want 3/4", cfg.MaxRetries, cfg.MaxParallel)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogFile != filepath.Join(home, "logs/dials.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if !cfg.DesktopNotifications {
		t.Fatalf("DesktopNotifications = false, want true")
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base = "   "
max_retries = 0

[logging]
file = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != defaultAPIBase {
		t.Fatalf("APIBase = %q, want %q", cfg.APIBase, defaultAPIBase)
	}
	if cfg.MaxRetries != 0 {
		t.Fatalf("MaxRetries = %d, want explicit 0", cfg.MaxRetries)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", `api_base = [`, "parse config"},
		{"zero timeout", `request_timeout_seconds = 0`, "request_timeout_seconds"},
		{"negative retries", `max_retries = -1`, "max_retries"},
		{"zero parallel", `max_parallel_loads = 0`, "max_parallel_loads"},
		{"unknown level", "[logging]\nlevel = \"loud\"", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
