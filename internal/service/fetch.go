// Package service implements the fetch and update contracts the panel
// controllers consume, on top of the API client and the section cache.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
	"github.com/five82/dials/internal/state"
)

// FetchService reads sections cache-first.
type FetchService struct {
	api    settingsapi.SettingsAPI
	cache  *state.Store
	logger *slog.Logger
	group  singleflight.Group
}

// NewFetchService builds a FetchService. A nil cache disables caching.
func NewFetchService(api settingsapi.SettingsAPI, cache *state.Store, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default().With("component", "service.fetch")
	}
	if cache == nil {
		cache = &state.Store{}
	}
	return &FetchService{api: api, cache: cache, logger: logger}
}

// FetchSettings returns the settings of section. The cache answers unless
// forceRefresh is set; network results refill the cache. Concurrent fetches
// of the same section share one request.
func (s *FetchService) FetchSettings(ctx context.Context, section setting.SectionPath, forceRefresh bool) ([]setting.Setting, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Get(section); ok {
			return cached, nil
		}
	}

	v, err, shared := s.group.Do(string(section), func() (any, error) {
		settings, err := s.api.FetchSection(ctx, section)
		if err != nil {
			return nil, err
		}
		s.cache.Put(section, settings)
		return settings, nil
	})
	if err != nil {
		s.logger.Warn("fetch section failed", "section", section, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", section, err)
	}
	s.logger.Debug("fetched section", "section", section, "shared", shared, "forced", forceRefresh)
	return setting.CloneList(v.([]setting.Setting)), nil
}

// GetSettingValue returns one value, falling back to def when the section
// cannot be fetched or does not carry key.
func (s *FetchService) GetSettingValue(ctx context.Context, section setting.SectionPath, key setting.Key, def setting.Value) setting.Value {
	settings, err := s.FetchSettings(ctx, section, false)
	if err != nil {
		return def
	}
	if v, ok := setting.Find(settings, key); ok && !v.IsNull() {
		return v
	}
	return def
}

// GetCachedSettings peeks at the cache without touching the network.
func (s *FetchService) GetCachedSettings(section setting.SectionPath) ([]setting.Setting, bool) {
	return s.cache.Get(section)
}

// ClearSectionCache forgets one section.
func (s *FetchService) ClearSectionCache(section setting.SectionPath) {
	if s.cache.Clear(section) {
		s.logger.Debug("cleared section cache", "section", section)
	}
}

// ClearCache forgets every cached section.
func (s *FetchService) ClearCache() {
	s.cache.ClearAll()
	s.logger.Debug("cleared all section caches")
}

// ListSections asks the API which sections exist.
func (s *FetchService) ListSections(ctx context.Context) ([]setting.SectionPath, error) {
	sections, err := s.api.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
