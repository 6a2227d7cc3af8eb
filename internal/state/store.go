package state

import (
	"sort"
	"sync"
	"time"

	"github.com/five82/dials/internal/setting"
)

// SectionInfo summarizes one cached section for the status bar.
type SectionInfo struct {
	Section     setting.SectionPath
	Count       int
	LastUpdated time.Time
}

// Snapshot represents the cache as seen by the UI.
type Snapshot struct {
	Sections      []SectionInfo
	Invalidations int
	LastCleared   time.Time
}

type entry struct {
	settings []setting.Setting
	updated  time.Time
}

// Store caches fetched sections. It is read-mostly: the fetch path fills it,
// the update path merges successful writes, and the change feed clears it.
type Store struct {
	mu            sync.RWMutex
	sections      map[setting.SectionPath]entry
	invalidations int
	lastCleared   time.Time
}

// Get returns a copy of the cached section.
func (s *Store) Get(section setting.SectionPath) ([]setting.Setting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sections[section]
	if !ok {
		return nil, false
	}
	return setting.CloneList(e.settings), true
}

// Put replaces the cached section.
func (s *Store) Put(section setting.SectionPath, settings []setting.Setting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sections == nil {
		s.sections = make(map[setting.SectionPath]entry)
	}
	s.sections[section] = entry{settings: setting.CloneList(settings), updated: time.Now()}
}

// Merge applies a successful write to a cached section. Sections that are
// not cached stay uncached so the next read goes to the network.
func (s *Store) Merge(section setting.SectionPath, key setting.Key, value setting.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sections[section]
	if !ok {
		return
	}
	e.settings = setting.Merge(e.settings, key, value)
	e.updated = time.Now()
	s.sections[section] = e
}

// Clear drops one section. It reports whether anything was cached.
func (s *Store) Clear(section setting.SectionPath) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sections[section]
	delete(s.sections, section)
	s.invalidations++
	s.lastCleared = time.Now()
	return ok
}

// ClearAll drops every section.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = nil
	s.invalidations++
	s.lastCleared = time.Now()
}

// Snapshot returns a summary of the cache.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Invalidations: s.invalidations, LastCleared: s.lastCleared}
	for section, e := range s.sections {
		snap.Sections = append(snap.Sections, SectionInfo{
			Section:     section,
			Count:       len(e.settings),
			LastUpdated: e.updated,
		})
	}
	sort.Slice(snap.Sections, func(i, j int) bool {
		return snap.Sections[i].Section < snap.Sections[j].Section
	})
	return snap
}
