package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
	"github.com/five82/dials/internal/state"
)

const (
	defaultWriteTimeout = 5 * time.Second
	writeQueueSize      = 128
)

// ErrClosed is returned once the update service has been closed.
var ErrClosed = errors.New("update service closed")

type writeJob struct {
	update setting.Update
	// barrier jobs carry no update and are acknowledged in queue order.
	barrier chan struct{}
}

// UpdateService persists values. Single writes are queued and applied by
// one worker in the order they were requested.
type UpdateService struct {
	api      settingsapi.SettingsAPI
	cache    *state.Store
	notifier notify.Notifier
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan writeJob
	done   chan struct{}
}

// NewUpdateService builds an UpdateService and starts its worker. The worker
// stops when ctx is cancelled or Close is called.
func NewUpdateService(ctx context.Context, api settingsapi.SettingsAPI, cache *state.Store, notifier notify.Notifier, logger *slog.Logger) *UpdateService {
	if logger == nil {
		logger = slog.Default().With("component", "service.update")
	}
	if cache == nil {
		cache = &state.Store{}
	}
	s := &UpdateService{
		api:      api,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		timeout:  defaultWriteTimeout,
		queue:    make(chan writeJob, writeQueueSize),
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// UpdateSettingFromComponent queues one write. It does not report the
// outcome: failures are logged and shown as an error toast.
func (s *UpdateService) UpdateSettingFromComponent(section setting.SectionPath, key setting.Key, value setting.Value) {
	if err := s.enqueue(writeJob{update: setting.Update{Section: section, Key: key, Value: value.Clone()}}); err != nil {
		s.logger.Warn("dropped setting write", "section", section, "key", key, "error", err)
	}
}

// Flush blocks until every write queued before the call has been applied.
func (s *UpdateService) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := s.enqueue(writeJob{barrier: barrier}); err != nil {
		return err
	}
	select {
	case <-barrier:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes and waits for the worker to drain the queue.
func (s *UpdateService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

// UpdateMultipleSettings writes several values in one request and merges the
// successful ones into the cache.
func (s *UpdateService) UpdateMultipleSettings(ctx context.Context, updates []setting.Update) ([]setting.UpdateResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	results, err := s.api.UpdateBatch(ctx, updates)
	if err != nil {
		s.logger.Warn("batch update failed", "count", len(updates), "error", err)
		return nil, fmt.Errorf("update settings: %w", err)
	}
	type address struct {
		section setting.SectionPath
		key     setting.Key
	}
	byKey := make(map[address]setting.Value, len(updates))
	for _, u := range updates {
		byKey[address{u.Section, u.Key}] = u.Value
	}
	for _, r := range results {
		if !r.Success {
			s.logger.Warn("batch update rejected", "section", r.Section, "key", r.Key, "message", r.Message)
			continue
		}
		if v, ok := byKey[address{r.Section, r.Key}]; ok {
			s.cache.Merge(r.Section, r.Key, v)
		}
	}
	s.logger.Info("batch update applied", "count", len(updates))
	return results, nil
}

// GetDefaultValues fetches factory defaults for keys.
func (s *UpdateService) GetDefaultValues(ctx context.Context, section setting.SectionPath, keys []setting.Key) (map[setting.Key]setting.Value, error) {
	defaults, err := s.api.FetchDefaults(ctx, section, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch defaults for %s: %w", section, err)
	}
	return defaults, nil
}

func (s *UpdateService) enqueue(job writeJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- job:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *UpdateService) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queue:
			if !ok {
				return
			}
			if job.barrier != nil {
				close(job.barrier)
				continue
			}
			s.apply(ctx, job.update)
		}
	}
}

func (s *UpdateService) apply(ctx context.Context, u setting.Update) {
	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.api.UpdateSetting(writeCtx, u.Section, u.Key, u.Value); err != nil {
		s.logger.Error("setting write failed", "section", u.Section, "key", u.Key, "error", err)
		// The cached copy may no longer match the backend.
		s.cache.Clear(u.Section)
		if s.notifier != nil {
			s.notifier.ShowErrorSnackbar(fmt.Sprintf("Failed to save %s", u.Key), notify.WithDetail(err.Error()))
		}
		return
	}
	s.cache.Merge(u.Section, u.Key, u.Value)
	s.logger.Info("setting saved", "section", u.Section, "key", u.Key, "value", u.Value.String())
}
