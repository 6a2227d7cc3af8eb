package panel

import (
	"context"
	"slices"
	"testing"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

const sectionLocale setting.SectionPath = "Application.Localization"

func localeDef() Definition {
	langs := []setting.Value{setting.String("de"), setting.String("en"), setting.String("fr")}
	return Definition{
		Section:  sectionLocale,
		Title:    "Localization",
		Strategy: Batched,
		Fields: []FieldSpec{
			{Key: "localization.allowed", Kind: setting.KindStringList, Options: langs},
		},
	}
}

func TestStringSetEditor_DirtyCommitCancel(t *testing.T) {
	h := newHarness(localeDef())
	h.fetcher.network[sectionLocale] = []setting.Setting{
		{Name: "localization.allowed", Value: setting.Strings([]string{"en", "de"})},
	}
	h.ctrl.LoadSettings(context.Background())

	ed := NewStringSetEditor(h.ctrl, "localization.allowed")
	if ed.Dirty() {
		t.Fatalf("fresh editor reports dirty")
	}
	if got := ed.Options(); !slices.Equal(got, []string{"de", "en", "fr"}) {
		t.Fatalf("Options = %v", got)
	}

	ed.Toggle("fr")
	ed.Toggle("fr")
	if ed.Dirty() {
		t.Fatalf("toggling twice should restore a clean state")
	}

	ed.Toggle("de")
	if !ed.Dirty() || ed.Selected("de") {
		t.Fatalf("after removing de: dirty=%v selected=%v", ed.Dirty(), ed.Selected("de"))
	}
	ed.Cancel()
	if ed.Dirty() || !ed.Selected("de") {
		t.Fatalf("Cancel did not restore the snapshot")
	}
	if got := len(h.updater.written()); got != 0 {
		t.Fatalf("writes before commit = %d, want 0", got)
	}

	ed.Toggle("fr")
	if err := ed.Commit(context.Background()); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	writes := h.updater.written()
	if len(writes) != 1 {
		t.Fatalf("writes = %#v, want 1", writes)
	}
	got, _ := writes[0].Value.AsStrings()
	if !slices.Equal(got, []string{"de", "en", "fr"}) {
		t.Fatalf("written list = %v", got)
	}
	if ed.Dirty() {
		t.Fatalf("editor dirty after commit")
	}
}

func TestStringSetEditor_RejectedCommitFollowsController(t *testing.T) {
	h := newHarness(localeDef())
	h.fetcher.network[sectionLocale] = []setting.Setting{
		{Name: "localization.allowed", Value: setting.Strings([]string{"en"})},
	}
	h.ctrl.LoadSettings(context.Background())

	ed := NewStringSetEditor(h.ctrl, "localization.allowed")
	ed.Toggle("xx")
	if err := ed.Commit(context.Background()); err == nil {
		t.Fatalf("Commit with an undeclared member returned nil error")
	}
	if ed.Dirty() || !slices.Equal(ed.Members(), []string{"en"}) {
		t.Fatalf("members = %v, want reverted [en]", ed.Members())
	}
	if got := len(h.updater.written()); got != 0 {
		t.Fatalf("writes = %d, want 0", got)
	}
}

func TestRegionsEditor_CommitDiff(t *testing.T) {
	store := &fakeRegions{rows: []settingsapi.Region{
		{ID: "r1", Name: "North"},
		{ID: "r2", Name: "South"},
		{ID: "r3", Name: "East"},
	}}
	notifier := &recordingNotifier{}
	ed := NewRegionsEditor(store, notifier, quietLogger())
	ctx := context.Background()

	if err := ed.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ed.Dirty() {
		t.Fatalf("fresh editor reports dirty")
	}

	if err := ed.Rename(0, "Nord"); err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if err := ed.Remove(1); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := ed.Add("West"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := ed.Add("  "); err == nil {
		t.Fatalf("Add of a blank name returned nil error")
	}
	if err := ed.Rename(9, "x"); err == nil {
		t.Fatalf("Rename out of range returned nil error")
	}

	d := ed.Diff()
	if !slices.Equal(d.Create, []string{"West"}) || !slices.Equal(d.Delete, []string{"r2"}) ||
		len(d.Update) != 1 || d.Update[0] != (settingsapi.Region{ID: "r1", Name: "Nord"}) {
		t.Fatalf("Diff = %+v", d)
	}

	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if ed.Dirty() {
		t.Fatalf("editor dirty after commit")
	}
	rows := ed.Rows()
	if len(rows) != 3 || rows[0].Name != "Nord" || rows[2].Name != "West" || rows[2].ID == "" {
		t.Fatalf("rows after commit = %+v", rows)
	}
	if len(notifier.successes) != 1 {
		t.Fatalf("success toasts = %v, want 1", notifier.successes)
	}
}

func TestRegionsEditor_PartialFailureAndCancel(t *testing.T) {
	store := &fakeRegions{rows: []settingsapi.Region{{ID: "r1", Name: "North"}}, failOn: "Bad"}
	notifier := &recordingNotifier{}
	ed := NewRegionsEditor(store, notifier, quietLogger())
	ctx := context.Background()
	if err := ed.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	_ = ed.Add("Temp")
	ed.Cancel()
	if ed.Dirty() || len(ed.Rows()) != 1 {
		t.Fatalf("Cancel did not restore the snapshot: %+v", ed.Rows())
	}
	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("Commit of a clean editor returned error: %v", err)
	}

	_ = ed.Add("Good")
	_ = ed.Add("Bad")
	if err := ed.Commit(ctx); err == nil {
		t.Fatalf("Commit returned nil error despite a rejected create")
	}
	if notifier.errorCount() != 1 {
		t.Fatalf("error toasts = %v, want 1", notifier.errors)
	}
	rows := ed.Rows()
	if len(rows) != 2 || rows[1].Name != "Good" {
		t.Fatalf("rows after partial commit = %+v, want the server state", rows)
	}
}
