// Package logging owns the process logger. The TUI holds the terminal, so
// records go to a file, optionally mirrored to another writer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager owns the logger configuration and the log file lifecycle.
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
	file   *os.File
}

// NewManager returns a manager that discards records until Configure runs.
func NewManager() *Manager {
	return &Manager{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Configure opens filePath for appending and installs a text handler at the
// given level as the slog default. A non-nil mirror also receives every record.
func (m *Manager) Configure(level, filePath string, mirror io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	var writers []io.Writer
	if strings.TrimSpace(filePath) != "" {
		cleanPath := filepath.Clean(filePath)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		// #nosec G304 -- path comes from the user's config.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		m.file = file
		writers = append(writers, file)
	}
	writers = append(writers, mirror)

	h := slog.NewTextHandler(newFanoutWriter(writers...), &slog.HandlerOptions{Level: lvl})
	m.logger = slog.New(h)
	slog.SetDefault(m.logger)
	return nil
}

// Logger returns a logger tagged with component.
func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger.With("component", component)
}

// Close closes the log file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return err
		}
		m.file = nil
	}
	return nil
}

func parseLevel(raw string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unsupported log level: %q", raw)
	}
}

type fanoutWriter struct {
	writers []io.Writer
}

func newFanoutWriter(writers ...io.Writer) io.Writer {
	filtered := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			filtered = append(filtered, w)
		}
	}
	return &fanoutWriter{writers: filtered}
}

// Write succeeds when at least one destination took the whole record.
func (w *fanoutWriter) Write(p []byte) (int, error) {
	var (
		wroteAny bool
		firstErr error
	)
	for _, dst := range w.writers {
		n, err := dst.Write(p)
		if err == nil && n != len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		wroteAny = true
	}
	if wroteAny || firstErr == nil {
		return len(p), nil
	}
	return 0, firstErr
}
