package app

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/five82/dials/internal/fakeapi"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	for failures := 0; failures <= 64; failures++ {
		if got := calculateBackoff(failures, 2*time.Second); got > maxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds maxBackoff %v", failures, got, maxBackoff)
		}
	}
}

type recordingInvalidator struct {
	mu      sync.Mutex
	cleared []setting.SectionPath
	resets  int
}

func (r *recordingInvalidator) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recordingInvalidator) resetCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

func (r *recordingInvalidator) ClearSectionCache(section setting.SectionPath) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, section)
}

func (r *recordingInvalidator) sections() []setting.SectionPath {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]setting.SectionPath(nil), r.cleared...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListener_InvalidatesChangedSections(t *testing.T) {
	const section setting.SectionPath = "Application.Logging"
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend := fakeapi.New([]fakeapi.Section{{
		Path:     section,
		Settings: []setting.Setting{{Name: "logging.file.enabled", Value: setting.Bool(false)}},
	}}, fakeapi.WithLogger(quiet))
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(func() {
		backend.Close()
		ts.Close()
	})
	client, err := settingsapi.NewClient(ts.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	cache := &recordingInvalidator{}
	l := NewListener(client, cache, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()

	waitFor(t, "subscription", func() bool { return l.Connected() && backend.Clients() > 0 })

	if err := backend.SetValue(section, "logging.file.enabled", setting.Bool(true)); err != nil {
		t.Fatalf("SetValue returned error: %v", err)
	}
	waitFor(t, "invalidation", func() bool { return len(cache.sections()) > 0 })

	if got := cache.sections(); got[0] != section {
		t.Fatalf("cleared = %v, want [%s]", got, section)
	}
	if got := l.Received(); got != 1 {
		t.Fatalf("Received = %d, want 1", got)
	}
	if got := cache.resetCount(); got != 0 {
		t.Fatalf("ClearCache calls = %d on first connect, want 0", got)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if l.Connected() {
		t.Fatalf("Connected = true after Run returned")
	}
}

func TestListener_IgnoresUnrelatedEvents(t *testing.T) {
	cache := &recordingInvalidator{}
	l := NewListener(nil, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	l.handle(settingsapi.Event{Type: "heartbeat"})
	l.handle(settingsapi.Event{Type: settingsapi.EventSectionChanged})

	if got := cache.sections(); len(got) != 0 {
		t.Fatalf("cleared = %v, want none", got)
	}
}
