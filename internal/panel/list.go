package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

// ListEditor edits list-shaped state against a snapshot and writes it only
// on an explicit Commit.
type ListEditor interface {
	Dirty() bool
	Commit(ctx context.Context) error
	Cancel()
}

// StringSetEditor toggles members of a string-list setting owned by a
// controller. Commit writes the whole list through the controller.
type StringSetEditor struct {
	ctrl *Controller
	key  setting.Key

	mu       sync.Mutex
	original []string
	working  []string
}

// NewStringSetEditor binds an editor to a string-list field of ctrl.
func NewStringSetEditor(ctrl *Controller, key setting.Key) *StringSetEditor {
	e := &StringSetEditor{ctrl: ctrl, key: key}
	e.Reset()
	return e
}

// Reset takes a new snapshot from the controller's current value.
func (e *StringSetEditor) Reset() {
	current, _ := e.ctrl.Snapshot().Value(e.key).AsStrings()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.original = normalizeSet(current)
	e.working = slices.Clone(e.original)
}

// Options lists the selectable members declared by the field.
func (e *StringSetEditor) Options() []string {
	spec, _ := e.ctrl.Definition().Field(e.key)
	out := make([]string, 0, len(spec.Options))
	for _, o := range spec.Options {
		if s, ok := o.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Selected reports whether member is in the working set.
func (e *StringSetEditor) Selected(member string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Contains(e.working, member)
}

// Members returns the working set, sorted.
func (e *StringSetEditor) Members() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.working)
}

// Toggle adds or removes member.
func (e *StringSetEditor) Toggle(member string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := slices.Index(e.working, member); i >= 0 {
		e.working = slices.Delete(e.working, i, i+1)
		return
	}
	e.working = normalizeSet(append(e.working, member))
}

func (e *StringSetEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !slices.Equal(e.original, e.working)
}

func (e *StringSetEditor) Commit(context.Context) error {
	e.mu.Lock()
	if slices.Equal(e.original, e.working) {
		e.mu.Unlock()
		return nil
	}
	next := slices.Clone(e.working)
	e.mu.Unlock()

	if err := e.ctrl.Set(e.key, setting.Strings(next)); err != nil {
		if !errors.Is(err, ErrNotWritable) {
			// The controller reverted the value; follow it.
			e.Reset()
		}
		return err
	}
	e.mu.Lock()
	e.original = next
	e.mu.Unlock()
	return nil
}

func (e *StringSetEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = slices.Clone(e.original)
}

func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RegionStore is the CRUD collaborator behind the regions table.
type RegionStore interface {
	FetchAllRegions(ctx context.Context) ([]settingsapi.Region, error)
	CreateRegion(ctx context.Context, name string) (settingsapi.Region, error)
	UpdateRegion(ctx context.Context, region settingsapi.Region) (settingsapi.Region, error)
	DeleteRegions(ctx context.Context, ids []string) error
}

// RegionDiff is the set of operations Commit sends.
type RegionDiff struct {
	Create []string
	Update []settingsapi.Region
	Delete []string
}

// Empty reports whether the diff has no operations.
func (d RegionDiff) Empty() bool {
	return len(d.Create) == 0 && len(d.Update) == 0 && len(d.Delete) == 0
}

// RegionsEditor edits the regions table. Rows added locally carry an empty
// ID until Commit creates them.
type RegionsEditor struct {
	store    RegionStore
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	original []settingsapi.Region
	working  []settingsapi.Region
	loaded   bool
}

// NewRegionsEditor builds an editor; call Load before use.
func NewRegionsEditor(store RegionStore, notifier notify.Notifier, logger *slog.Logger) *RegionsEditor {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegionsEditor{store: store, notifier: notifier, logger: logger.With("component", "panel.regions")}
}

// Load fetches the table and takes the snapshot.
func (e *RegionsEditor) Load(ctx context.Context) error {
	regions, err := e.store.FetchAllRegions(ctx)
	if err != nil {
		e.logger.Warn("load regions failed", "error", err)
		e.notifier.ShowErrorSnackbar("Failed to load regions", notify.WithDetail(err.Error()))
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.original = slices.Clone(regions)
	e.working = slices.Clone(regions)
	e.loaded = true
	return nil
}

// Loaded reports whether a snapshot has been taken.
func (e *RegionsEditor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Rows returns the working table.
func (e *RegionsEditor) Rows() []settingsapi.Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.working)
}

// Add appends a new row.
func (e *RegionsEditor) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("region name is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = append(e.working, settingsapi.Region{Name: name})
	return nil
}

// Rename changes the name of row i.
func (e *RegionsEditor) Rename(i int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("region name is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.working) {
		return fmt.Errorf("row %d out of range", i)
	}
	e.working[i].Name = name
	return nil
}

// Remove drops row i.
func (e *RegionsEditor) Remove(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.working) {
		return fmt.Errorf("row %d out of range", i)
	}
	e.working = slices.Delete(e.working, i, i+1)
	return nil
}

func (e *RegionsEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !slices.Equal(e.original, e.working)
}

// Diff compares the working table with the snapshot.
func (e *RegionsEditor) Diff() RegionDiff {
	e.mu.Lock()
	defer e.mu.Unlock()
	return diffRegions(e.original, e.working)
}

func diffRegions(original, working []settingsapi.Region) RegionDiff {
	var d RegionDiff
	before := make(map[string]string, len(original))
	for _, r := range original {
		before[r.ID] = r.Name
	}
	kept := make(map[string]bool, len(working))
	for _, r := range working {
		if r.ID == "" {
			d.Create = append(d.Create, r.Name)
			continue
		}
		kept[r.ID] = true
		if name, ok := before[r.ID]; ok && name != r.Name {
			d.Update = append(d.Update, r)
		}
	}
	for _, r := range original {
		if !kept[r.ID] {
			d.Delete = append(d.Delete, r.ID)
		}
	}
	return d
}

// Commit sends deletes, then updates, then creates, and reloads the table.
// Every operation is attempted; failures are joined into the result.
func (e *RegionsEditor) Commit(ctx context.Context) error {
	d := e.Diff()
	if d.Empty() {
		return nil
	}

	var errs []error
	if len(d.Delete) > 0 {
		if err := e.store.DeleteRegions(ctx, d.Delete); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range d.Update {
		if _, err := e.store.UpdateRegion(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range d.Create {
		if _, err := e.store.CreateRegion(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn("regions commit incomplete", "failed", len(errs), "error", err)
		e.notifier.ShowErrorSnackbar("Some region changes were not saved", notify.WithDetail(err.Error()))
	} else {
		e.logger.Info("regions committed", "created", len(d.Create), "updated", len(d.Update), "deleted", len(d.Delete))
		e.notifier.ShowSuccessSnackbar("Regions saved")
	}
	if loadErr := e.Load(ctx); loadErr != nil {
		return errors.Join(err, loadErr)
	}
	return err
}

func (e *RegionsEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.working = slices.Clone(e.original)
}
