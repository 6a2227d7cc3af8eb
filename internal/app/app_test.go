package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/dials/internal/sections"
	"github.com/five82/dials/internal/service"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
	"github.com/five82/dials/internal/state"
)

func TestNewBackend_SeedsRegisteredSections(t *testing.T) {
	registry := sections.NewRegistry(nil)
	backend := newBackend(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(func() {
		srv.Close()
		backend.Close()
	})

	client, err := settingsapi.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	fetcher := service.NewFetchService(client, &state.Store{}, nil)

	remote, err := fetcher.ListSections(context.Background())
	if err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	if len(remote) != len(registry.Sections()) {
		t.Fatalf("backend sections = %v, want %v", remote, registry.Sections())
	}

	got, err := fetcher.FetchSettings(context.Background(), sections.Logging, false)
	if err != nil {
		t.Fatalf("FetchSettings returned error: %v", err)
	}
	v, ok := setting.Find(got, sections.LoggingConsoleEnabled)
	if !ok || !v.Equal(setting.Bool(true)) {
		t.Fatalf("console enabled = %v (found %v), want on", v, ok)
	}

	regions, err := client.FetchAllRegions(context.Background())
	if err != nil {
		t.Fatalf("FetchAllRegions returned error: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("regions = %v, want two seeded", regions)
	}
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("max_parallel_loads = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := Run(context.Background(), Options{ConfigPath: path})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Run error = %v, want load config failure", err)
	}
}

func TestRun_ServeStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "dials.log")
	configPath := filepath.Join(dir, "config.toml")
	content := "[logging]\nlevel = \"info\"\nfile = \"" + logFile + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stderr bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{ConfigPath: configPath, Serve: "127.0.0.1:0", Stderr: &stderr})
	}()

	waitFor(t, "backend start", func() bool {
		data, _ := os.ReadFile(logFile)
		return strings.Contains(string(data), "serving settings backend")
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if !strings.Contains(stderr.String(), "component=fakeapi") {
		t.Fatalf("stderr mirror missing backend logs:\n%s", stderr.String())
	}
}
