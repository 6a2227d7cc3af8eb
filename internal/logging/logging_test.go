package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFanoutWriter_ContinuesWhenOneDestinationFails(t *testing.T) {
	var dst bytes.Buffer
	w := newFanoutWriter(errorWriter{err: errors.New("broken")}, nil, &dst)

	n, err := w.Write([]byte("test"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != len("test") {
		t.Fatalf("Write = %d, want %d", n, len("test"))
	}
	if got := dst.String(); got != "test" {
		t.Fatalf("destination = %q, want test", got)
	}
}

func TestFanoutWriter_AllFailing(t *testing.T) {
	w := newFanoutWriter(errorWriter{err: errors.New("first")}, errorWriter{err: errors.New("second")})
	if _, err := w.Write([]byte("x")); err == nil || err.Error() != "first" {
		t.Fatalf("Write error = %v, want first", err)
	}
}

func TestManagerConfigure_WritesFileAndMirror(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	logPath := filepath.Join(t.TempDir(), "nested", "dials.log")
	var mirror bytes.Buffer

	m := NewManager()
	t.Cleanup(func() { _ = m.Close() })
	if err := m.Configure("warn", logPath, &mirror); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	m.Logger("panel").Info("dropped below level")
	m.Logger("panel").Warn("kept", "key", "password.min.length")

	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Clean(logPath))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, out := range []string{string(raw), mirror.String()} {
		if !strings.Contains(out, "kept") || !strings.Contains(out, "component=panel") {
			t.Fatalf("log output %q missing warn record", out)
		}
		if strings.Contains(out, "dropped below level") {
			t.Fatalf("log output %q contains info record at warn level", out)
		}
	}
}

func TestManagerConfigure_RejectsUnknownLevel(t *testing.T) {
	m := NewManager()
	if err := m.Configure("loud", "", nil); err == nil {
		t.Fatalf("Configure returned nil error for unknown level")
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}
