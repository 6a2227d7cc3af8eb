package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/setting"
)

const defaultMaxParallel = 8

var (
	// ErrUnknownKey is returned for keys the panel does not own.
	ErrUnknownKey = errors.New("unknown setting key")
	// ErrNotWritable is returned when an edit was kept locally but the write
	// guard blocked it.
	ErrNotWritable = errors.New("setting not writable")
	// ErrControllerClosed is returned after Close.
	ErrControllerClosed = errors.New("panel closed")
)

// Fetcher reads sections, cache first.
type Fetcher interface {
	FetchSettings(ctx context.Context, section setting.SectionPath, forceRefresh bool) ([]setting.Setting, error)
	GetCachedSettings(section setting.SectionPath) ([]setting.Setting, bool)
	ClearSectionCache(section setting.SectionPath)
}

// Updater persists values. UpdateSettingFromComponent must not block on the
// network; its failures are not reported back.
type Updater interface {
	UpdateSettingFromComponent(section setting.SectionPath, key setting.Key, value setting.Value)
	UpdateMultipleSettings(ctx context.Context, updates []setting.Update) ([]setting.UpdateResult, error)
	GetDefaultValues(ctx context.Context, section setting.SectionPath, keys []setting.Key) (map[setting.Key]setting.Value, error)
}

// FieldState is the per-key view of the panel.
type FieldState struct {
	Value    setting.Value
	LastGood setting.Value
	Loading  bool
	Error    bool
	Retries  int
}

// Loaded reports whether the field holds a hydrated value.
func (f FieldState) Loaded() bool {
	return !f.Loading && !f.Error && !f.Value.IsNull()
}

// Snapshot is an immutable copy of the panel state.
type Snapshot struct {
	Section   setting.SectionPath
	Title     string
	FirstLoad bool
	Order     []setting.Key
	Fields    map[setting.Key]FieldState
}

// Value returns the current value of key, null when unknown.
func (s Snapshot) Value(key setting.Key) setting.Value {
	return s.Fields[key].Value
}

// Settled reports whether no field is loading.
func (s Snapshot) Settled() bool {
	for _, f := range s.Fields {
		if f.Loading {
			return false
		}
	}
	return true
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Fetcher  Fetcher
	Updater  Updater
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) {
		if p.MaxRetries >= 0 {
			c.policy = p
		}
	}
}

// WithScheduler replaces the wall clock used for retries.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithMaxParallel bounds concurrent per-key loads.
func WithMaxParallel(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxParallel = n
		}
	}
}

// Controller drives one section through hydrate, display and guarded
// write. All methods are safe for concurrent use; listeners run on the
// goroutine that changed the state and must not block.
type Controller struct {
	def         Definition
	fetcher     Fetcher
	updater     Updater
	notifier    notify.Notifier
	logger      *slog.Logger
	scheduler   Scheduler
	policy      RetryPolicy
	maxParallel int

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	fields    map[setting.Key]*FieldState
	firstLoad  bool
	suppressed map[setting.Key]int
	closed     bool
	timers    map[setting.Key]Timer
	listeners map[int]func(Snapshot)
	nextID    int
}

// New builds a controller for def. Values start null and the first-load
// guard is armed until LoadSettings settles.
func New(def Definition, deps Deps, opts ...Option) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		def:         def,
		fetcher:     deps.Fetcher,
		updater:     deps.Updater,
		notifier:    notifier,
		logger:      logger.With("component", "panel", "section", string(def.Section)),
		scheduler:   wallClock{},
		policy:      DefaultRetryPolicy,
		maxParallel: defaultMaxParallel,
		ctx:         ctx,
		cancel:      cancel,
		fields:      make(map[setting.Key]*FieldState, len(def.Fields)),
		firstLoad:   true,
		suppressed:  make(map[setting.Key]int),
		timers:      make(map[setting.Key]Timer),
		listeners:   make(map[int]func(Snapshot)),
	}
	for _, f := range def.Fields {
		c.fields[f.Key] = &FieldState{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Definition returns the panel definition.
func (c *Controller) Definition() Definition { return c.def }

// Subscribe registers fn for state changes and returns its cancel func.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close cancels pending retries and in-flight loads and detaches listeners.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
	c.listeners = make(map[int]func(Snapshot))
	c.mu.Unlock()
	c.cancel()
}

// Reload drops the cached section and hydrates again from the network.
func (c *Controller) Reload(ctx context.Context) {
	c.fetcher.ClearSectionCache(c.def.Section)
	c.LoadSettings(ctx)
}

// LoadSettings hydrates every key using the definition's strategy. It
// returns once each key is loaded, errored or waiting for a scheduled retry,
// and only then disarms the first-load guard.
func (c *Controller) LoadSettings(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.firstLoad = true
	for key, f := range c.fields {
		c.stopTimerLocked(key)
		f.Loading = true
		f.Error = false
		f.Retries = 0
	}
	c.emitLocked()

	var loaded int
	switch c.def.Strategy {
	case PerKey:
		loaded = c.loadPerKey(ctx)
	default:
		loaded = c.loadBatched(ctx)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.firstLoad = false
	c.emitLocked()

	c.logger.Info("section loaded", "strategy", c.def.Strategy.String(), "loaded", loaded, "keys", len(c.def.Fields))
	if loaded > 0 {
		c.notifier.ShowSuccessSnackbar(fmt.Sprintf("%s loaded", c.def.Title))
	}
}

func (c *Controller) loadBatched(ctx context.Context) int {
	settings, err := c.fetcher.FetchSettings(ctx, c.def.Section, false)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	if err != nil || len(settings) == 0 {
		for _, f := range c.fields {
			f.Loading = false
			f.Error = true
		}
		c.emitLocked()
		if err != nil {
			c.logger.Warn("section fetch failed", "error", err)
			c.notifier.ShowErrorSnackbar(fmt.Sprintf("Failed to load %s", c.def.Title), notify.WithDetail(err.Error()))
		} else {
			c.logger.Warn("section fetch returned no settings")
		}
		return 0
	}

	loaded := 0
	for _, key := range c.def.Keys() {
		f := c.fields[key]
		if v, ok := setting.Find(settings, key); ok && !v.IsNull() {
			c.hydrateLocked(key, f, v)
			loaded++
			continue
		}
		f.Loading = false
		f.Error = true
		c.logger.Warn("setting missing from section", "key", key)
	}
	c.emitLocked()
	return loaded
}

func (c *Controller) loadPerKey(ctx context.Context) int {
	var loaded atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(c.maxParallel)
	for _, key := range c.def.Keys() {
		g.Go(func() error {
			if c.LoadSetting(ctx, key) {
				loaded.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(loaded.Load())
}

// LoadSetting hydrates one key from the cache, falling back to the network.
// On failure it schedules a retry while the policy allows, otherwise the key
// settles into the error state and one notification names it. Callers are
// not blocked by the scheduled retry.
func (c *Controller) LoadSetting(ctx context.Context, key setting.Key) bool {
	c.mu.Lock()
	f, ok := c.fields[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked(key)
	f.Loading = true
	f.Error = false
	c.emitLocked()

	v, err := c.fetchKey(ctx, key)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if err == nil {
		c.hydrateLocked(key, f, v)
		c.emitLocked()
		return true
	}

	if f.Retries < c.policy.MaxRetries {
		f.Retries++
		attempt := f.Retries
		c.timers[key] = c.scheduler.AfterFunc(c.policy.Delay, func() { c.retryFired(key) })
		c.mu.Unlock()
		c.logger.Warn("setting load failed, retrying", "key", key, "attempt", attempt, "delay", c.policy.Delay, "error", err)
		return false
	}

	f.Loading = false
	f.Error = true
	attempts := f.Retries + 1
	c.emitLocked()
	c.logger.Error("setting load failed", "key", key, "attempts", attempts, "error", err)
	c.notifier.ShowErrorSnackbar(fmt.Sprintf("Failed to load %s", key), notify.WithDetail(err.Error()))
	return false
}

func (c *Controller) retryFired(key setting.Key) {
	c.mu.Lock()
	delete(c.timers, key)
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.LoadSetting(c.ctx, key)
}

func (c *Controller) fetchKey(ctx context.Context, key setting.Key) (setting.Value, error) {
	cached, sectionCached := c.fetcher.GetCachedSettings(c.def.Section)
	if sectionCached {
		if v, ok := setting.Find(cached, key); ok && !v.IsNull() {
			return v, nil
		}
	}
	// A cached section without the key is stale; go to the network.
	settings, err := c.fetcher.FetchSettings(ctx, c.def.Section, sectionCached)
	if err != nil {
		return setting.Value{}, err
	}
	v, ok := setting.Find(settings, key)
	if !ok || v.IsNull() {
		return setting.Value{}, fmt.Errorf("%s: %w", key, setting.ErrKeyNotFound)
	}
	return v, nil
}

// RetrySetting clears the error and retry budget of key and loads it again.
func (c *Controller) RetrySetting(ctx context.Context, key setting.Key) bool {
	c.mu.Lock()
	f, ok := c.fields[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return false
	}
	if _, pending := c.timers[key]; f.Loading && !pending {
		// An attempt is already in flight.
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked(key)
	f.Retries = 0
	f.Error = false
	c.mu.Unlock()
	return c.LoadSetting(ctx, key)
}

// UpdateSetting forwards value to the Updater unless key is loading or
// errored. It reports whether the write was sent.
func (c *Controller) UpdateSetting(key setting.Key, value setting.Value) bool {
	c.mu.Lock()
	f, ok := c.fields[key]
	blocked := !ok || c.closed || f.Loading || f.Error
	c.mu.Unlock()
	if blocked {
		return false
	}
	c.updater.UpdateSettingFromComponent(c.def.Section, key, value.Clone())
	return true
}

// Set is the value-changed event of a bound control. The value is always
// assigned locally. It is written only when the first load has settled and
// the key is loaded; invalid values are reverted to the last good value.
// Written edits then run the cross-field rules.
func (c *Controller) Set(key setting.Key, value setting.Value) error {
	spec, ok := c.def.Field(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	f := c.fields[key]
	if c.suppressed[key] > 0 {
		c.hydrateLocked(key, f, value)
		c.emitLocked()
		return nil
	}
	if f.Value.Equal(value) {
		c.mu.Unlock()
		return nil
	}
	f.Value = value.Clone()
	writable := !c.firstLoad && !f.Loading && !f.Error && !value.IsNull()
	lastGood := f.LastGood.Clone()
	c.emitLocked()

	if !writable {
		c.logger.Debug("write suppressed", "key", key)
		return ErrNotWritable
	}

	if err := spec.Validate(value); err != nil {
		c.logger.Info("rejected invalid value", "key", key, "error", err)
		c.programmatic([]setting.Key{key}, func() { _ = c.Set(key, lastGood) })
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("Invalid %s", spec.DisplayLabel()), notify.WithDetail(err.Error()))
		return fmt.Errorf("%s: %w", key, err)
	}

	if partner, ok := c.unloadedPartner(key); ok {
		// The pair cannot be checked yet.
		c.logger.Info("edit held until partner loads", "key", key, "partner", partner)
		c.programmatic([]setting.Key{key}, func() { _ = c.Set(key, lastGood) })
		label := string(partner)
		if ps, ok := c.def.Field(partner); ok {
			label = ps.DisplayLabel()
		}
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("%s is not loaded yet", label))
		return ErrNotWritable
	}

	c.mu.Lock()
	f.LastGood = value.Clone()
	c.mu.Unlock()
	if !c.UpdateSetting(key, value) {
		return ErrNotWritable
	}

	for _, rule := range c.def.Rules {
		for _, ch := range rule.Apply(key, c.valueOf) {
			if err := c.Set(ch.Key, ch.Value); err != nil {
				c.logger.Warn("rule change not applied", "key", ch.Key, "error", err)
			}
		}
	}
	return nil
}

// ResetToDefaults writes the factory defaults of every key in one batch
// and applies the accepted ones locally without further writes.
func (c *Controller) ResetToDefaults(ctx context.Context) error {
	keys := c.def.Keys()
	defaults, err := c.updater.GetDefaultValues(ctx, c.def.Section, keys)
	if err != nil {
		c.logger.Warn("fetch defaults failed", "error", err)
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("Failed to load defaults for %s", c.def.Title), notify.WithDetail(err.Error()))
		return err
	}

	updates := make([]setting.Update, 0, len(keys))
	for _, key := range keys {
		if v, ok := defaults[key]; ok && !v.IsNull() {
			updates = append(updates, setting.Update{Section: c.def.Section, Key: key, Value: v})
		}
	}
	if len(updates) == 0 {
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("No defaults available for %s", c.def.Title))
		return nil
	}

	results, err := c.updater.UpdateMultipleSettings(ctx, updates)
	if err != nil {
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("Failed to reset %s", c.def.Title), notify.WithDetail(err.Error()))
		return err
	}

	accepted := make(map[setting.Key]bool, len(results))
	for _, r := range results {
		if r.Section == c.def.Section && r.Success {
			accepted[r.Key] = true
		}
	}
	failed := 0
	resetKeys := make([]setting.Key, 0, len(updates))
	for _, u := range updates {
		resetKeys = append(resetKeys, u.Key)
	}
	c.programmatic(resetKeys, func() {
		for _, u := range updates {
			if !accepted[u.Key] {
				failed++
				continue
			}
			_ = c.Set(u.Key, u.Value)
		}
	})

	if failed > 0 {
		c.notifier.ShowErrorSnackbar(fmt.Sprintf("%d of %d settings could not be reset", failed, len(updates)))
		return nil
	}
	c.logger.Info("section reset to defaults", "count", len(updates))
	c.notifier.ShowSuccessSnackbar(fmt.Sprintf("%s reset to defaults", c.def.Title))
	return nil
}

// Enabled reports whether key is usable given the dependency rules.
func (c *Controller) Enabled(key setting.Key) bool {
	for _, rule := range c.def.Rules {
		if dep, ok := rule.(DependsOnRule); ok && !dep.Enabled(key, c.valueOf) {
			return false
		}
	}
	return true
}

// programmatic runs fn with outbound writes of keys suppressed. Edits of
// other keys made meanwhile are written as usual.
func (c *Controller) programmatic(keys []setting.Key, fn func()) {
	c.mu.Lock()
	for _, k := range keys {
		c.suppressed[k]++
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		for _, k := range keys {
			if c.suppressed[k]--; c.suppressed[k] <= 0 {
				delete(c.suppressed, k)
			}
		}
		c.mu.Unlock()
	}()
	fn()
}

// unloadedPartner returns a key paired with key by a rule that is not
// loaded, so the pair cannot be checked.
func (c *Controller) unloadedPartner(key setting.Key) (setting.Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rule := range c.def.Rules {
		p, ok := rule.(PairedRule)
		if !ok {
			continue
		}
		for _, partner := range p.Partners(key) {
			if f, ok := c.fields[partner]; ok && !f.Loaded() {
				return partner, true
			}
		}
	}
	return "", false
}

func (c *Controller) valueOf(key setting.Key) setting.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fields[key]; ok {
		return f.Value.Clone()
	}
	return setting.Null()
}

func (c *Controller) hydrateLocked(key setting.Key, f *FieldState, v setting.Value) {
	c.stopTimerLocked(key)
	f.Value = v.Clone()
	f.LastGood = v.Clone()
	f.Loading = false
	f.Error = false
}

func (c *Controller) stopTimerLocked(key setting.Key) {
	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Section:   c.def.Section,
		Title:     c.def.Title,
		FirstLoad: c.firstLoad,
		Order:     c.def.Keys(),
		Fields:    make(map[setting.Key]FieldState, len(c.fields)),
	}
	for key, f := range c.fields {
		snap.Fields[key] = FieldState{
			Value:    f.Value.Clone(),
			LastGood: f.LastGood.Clone(),
			Loading:  f.Loading,
			Error:    f.Error,
			Retries:  f.Retries,
		}
	}
	return snap
}

// emitLocked releases c.mu and delivers a snapshot to every listener.
func (c *Controller) emitLocked() {
	snap := c.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

type discard struct{}

func (discard) ShowSuccessSnackbar(string)                 {}
func (discard) ShowErrorSnackbar(string, ...notify.Option) {}
