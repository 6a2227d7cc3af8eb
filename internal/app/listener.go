package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

const (
	defaultReconnectBase = 2 * time.Second
	maxBackoff           = 30 * time.Second
	handshakeTimeout     = 5 * time.Second
)

// EventSource describes where the change feed lives.
type EventSource interface {
	EventsURL() string
	AuthHeader() http.Header
}

// Invalidator drops cached sections.
type Invalidator interface {
	ClearSectionCache(section setting.SectionPath)
	ClearCache()
}

// Listener subscribes to the backend change feed and invalidates the
// section cache whenever another writer touches a section.
type Listener struct {
	source    EventSource
	cache     Invalidator
	logger    *slog.Logger
	dialer    *websocket.Dialer
	base      time.Duration
	connected atomic.Bool
	received  atomic.Int64
	sessions  atomic.Int64
}

// NewListener builds a listener. Call Run to start it.
func NewListener(source EventSource, cache Invalidator, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		source: source,
		cache:  cache,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		base:   defaultReconnectBase,
	}
}

// Connected reports whether the feed is currently subscribed.
func (l *Listener) Connected() bool { return l.connected.Load() }

// Received returns the number of change events handled so far.
func (l *Listener) Received() int64 { return l.received.Load() }

// Run keeps the subscription alive until ctx is cancelled, reconnecting
// with exponential backoff.
func (l *Listener) Run(ctx context.Context) {
	failures := 0
	for {
		healthy, err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if healthy {
			failures = 0
		}
		wait := calculateBackoff(failures, l.base)
		failures++
		l.logger.Warn("change feed disconnected", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// listen holds one connection. healthy reports whether the dial succeeded,
// which resets the backoff.
func (l *Listener) listen(ctx context.Context) (healthy bool, err error) {
	conn, _, err := l.dialer.DialContext(ctx, l.source.EventsURL(), l.source.AuthHeader())
	if err != nil {
		return false, err
	}
	l.connected.Store(true)
	defer l.connected.Store(false)
	l.logger.Info("change feed connected", "url", l.source.EventsURL())
	if l.sessions.Add(1) > 1 {
		// Events sent while we were away are lost.
		l.cache.ClearCache()
		l.logger.Debug("cache cleared after reconnect")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var ev settingsapi.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			l.logger.Debug("ignoring malformed event", "error", err)
			continue
		}
		l.handle(ev)
	}
}

func (l *Listener) handle(ev settingsapi.Event) {
	if ev.Type != settingsapi.EventSectionChanged || ev.Section == "" {
		return
	}
	l.received.Add(1)
	l.cache.ClearSectionCache(ev.Section)
	l.logger.Debug("section invalidated", "section", ev.Section)
}

// calculateBackoff returns base doubled once per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
