package panel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

type fakeFetcher struct {
	mu         sync.Mutex
	cache      map[setting.SectionPath][]setting.Setting
	network    map[setting.SectionPath][]setting.Setting
	networkErr error
	calls      int
	forced     int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		cache:   make(map[setting.SectionPath][]setting.Setting),
		network: make(map[setting.SectionPath][]setting.Setting),
	}
}

func (f *fakeFetcher) FetchSettings(_ context.Context, section setting.SectionPath, force bool) ([]setting.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !force {
		if cached, ok := f.cache[section]; ok {
			return setting.CloneList(cached), nil
		}
	} else {
		f.forced++
	}
	f.calls++
	if f.networkErr != nil {
		return nil, f.networkErr
	}
	list, ok := f.network[section]
	if !ok {
		return nil, errors.New("section not found")
	}
	f.cache[section] = setting.CloneList(list)
	return setting.CloneList(list), nil
}

func (f *fakeFetcher) GetCachedSettings(section setting.SectionPath) ([]setting.Setting, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.cache[section]
	return setting.CloneList(list), ok
}

func (f *fakeFetcher) ClearSectionCache(section setting.SectionPath) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, section)
}

func (f *fakeFetcher) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingUpdater struct {
	mu       sync.Mutex
	writes   []setting.Update
	batches  [][]setting.Update
	defaults map[setting.Key]setting.Value
	reject   map[setting.Key]bool
	batchErr error
}

func (u *recordingUpdater) UpdateSettingFromComponent(section setting.SectionPath, key setting.Key, value setting.Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.writes = append(u.writes, setting.Update{Section: section, Key: key, Value: value})
}

func (u *recordingUpdater) UpdateMultipleSettings(_ context.Context, updates []setting.Update) ([]setting.UpdateResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.batchErr != nil {
		return nil, u.batchErr
	}
	u.batches = append(u.batches, updates)
	results := make([]setting.UpdateResult, 0, len(updates))
	for _, up := range updates {
		results = append(results, setting.UpdateResult{Section: up.Section, Key: up.Key, Success: !u.reject[up.Key]})
	}
	return results, nil
}

func (u *recordingUpdater) GetDefaultValues(_ context.Context, _ setting.SectionPath, keys []setting.Key) (map[setting.Key]setting.Value, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[setting.Key]setting.Value, len(keys))
	for _, k := range keys {
		if v, ok := u.defaults[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (u *recordingUpdater) written() []setting.Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]setting.Update(nil), u.writes...)
}

func (u *recordingUpdater) writesFor(key setting.Key) int {
	n := 0
	for _, w := range u.written() {
		if w.Key == key {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) ShowSuccessSnackbar(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) ShowErrorSnackbar(message string, _ ...notify.Option) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

// manualScheduler queues tasks until Fire runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, delay: d, fn: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Fire runs every pending task once and returns how many ran.
func (s *manualScheduler) Fire() int {
	s.mu.Lock()
	var due []*manualTimer
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

type fakeRegions struct {
	mu      sync.Mutex
	rows    []settingsapi.Region
	nextID  int
	created []string
	updated []settingsapi.Region
	deleted []string
	failOn  string
}

func (f *fakeRegions) FetchAllRegions(context.Context) ([]settingsapi.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]settingsapi.Region(nil), f.rows...), nil
}

func (f *fakeRegions) CreateRegion(_ context.Context, name string) (settingsapi.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == f.failOn {
		return settingsapi.Region{}, errors.New("create rejected")
	}
	f.nextID++
	r := settingsapi.Region{ID: "new-" + string(rune('0'+f.nextID)), Name: name}
	f.rows = append(f.rows, r)
	f.created = append(f.created, name)
	return r, nil
}

func (f *fakeRegions) UpdateRegion(_ context.Context, region settingsapi.Region) (settingsapi.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == region.ID {
			f.rows[i].Name = region.Name
		}
	}
	f.updated = append(f.updated, region)
	return region, nil
}

func (f *fakeRegions) DeleteRegions(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := f.rows[:0]
	for _, r := range f.rows {
		drop := false
		for _, id := range ids {
			if r.ID == id {
				drop = true
			}
		}
		if !drop {
			keep = append(keep, r)
		}
	}
	f.rows = keep
	f.deleted = append(f.deleted, ids...)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
