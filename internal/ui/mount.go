package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/setting"
)

// mount is the controller of the visible section plus its list editor.
// Controller snapshots reach the model through updates; a send never
// blocks and an unread snapshot is replaced by the newer one.
type mount struct {
	gen     int
	ctrl    *panel.Controller
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan panel.Snapshot
	done    chan struct{}
	unsub   func()

	strings    *panel.StringSetEditor
	stringsKey setting.Key
	regions    *panel.RegionsEditor
}

func (mt *mount) publish(s panel.Snapshot) {
	for {
		select {
		case <-mt.done:
			return
		case mt.updates <- s:
			return
		default:
		}
		select {
		case <-mt.updates:
		default:
		}
	}
}

func (mt *mount) list() panel.ListEditor {
	if mt.strings != nil {
		return mt.strings
	}
	if mt.regions != nil {
		return mt.regions
	}
	return nil
}

// syncList makes a clean string-set editor follow the controller.
func (mt *mount) syncList() {
	if mt.strings != nil && !mt.strings.Dirty() {
		mt.strings.Reset()
	}
}

func (mt *mount) close() {
	mt.unsub()
	close(mt.done)
	mt.cancel()
	mt.ctrl.Close()
}

// mountSection replaces the mounted controller with one for defs[idx] and
// returns the commands that hydrate it.
func (m *Model) mountSection(idx int) tea.Cmd {
	m.unmount()

	m.sectionIdx = idx
	m.fieldIdx = 0
	m.listIdx = 0
	if m.focus == focusList {
		m.focus = focusFields
	}
	def := m.defs[idx]

	m.gen++
	ctx, cancel := context.WithCancel(m.ctx)
	mt := &mount{
		gen:     m.gen,
		ctrl:    panel.New(def, m.deps, m.panelOpts...),
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan panel.Snapshot, 1),
		done:    make(chan struct{}),
	}
	mt.unsub = mt.ctrl.Subscribe(mt.publish)
	for _, f := range def.Fields {
		if f.Kind == setting.KindStringList {
			mt.strings = panel.NewStringSetEditor(mt.ctrl, f.Key)
			mt.stringsKey = f.Key
			break
		}
	}
	if def.RegionTable && m.regionStore != nil {
		mt.regions = panel.NewRegionsEditor(m.regionStore, m.deps.Notifier, m.deps.Logger)
	}
	m.mount = mt
	m.snap = mt.ctrl.Snapshot()

	if m.prefs.LastSection != string(def.Section) {
		m.prefs.LastSection = string(def.Section)
		m.savePrefs()
	}

	cmds := []tea.Cmd{waitSnapshot(mt), m.loadCmd()}
	if mt.regions != nil {
		cmds = append(cmds, m.regionsLoadCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) unmount() {
	if m.mount == nil {
		return
	}
	m.mount.close()
	m.mount = nil
}

func waitSnapshot(mt *mount) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-mt.updates:
			return snapshotMsg{gen: mt.gen, snap: s}
		case <-mt.done:
			return nil
		}
	}
}

func (m *Model) loadCmd() tea.Cmd {
	mt := m.mount
	return func() tea.Msg {
		mt.ctrl.LoadSettings(mt.ctx)
		return actionDoneMsg{gen: mt.gen, action: "load"}
	}
}

func (m *Model) regionsLoadCmd() tea.Cmd {
	mt := m.mount
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(mt.ctx, ActionTimeout)
		defer cancel()
		return actionDoneMsg{gen: mt.gen, action: "load regions", err: mt.regions.Load(ctx)}
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	mt := m.mount
	m.busy = "Reloading"
	cmds := []tea.Cmd{func() tea.Msg {
		mt.ctrl.Reload(mt.ctx)
		return actionDoneMsg{gen: mt.gen, action: "reload"}
	}}
	if mt.regions != nil && !mt.regions.Dirty() {
		cmds = append(cmds, m.regionsLoadCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) resetCmd() tea.Cmd {
	mt := m.mount
	m.busy = "Resetting"
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(mt.ctx, ActionTimeout)
		defer cancel()
		return actionDoneMsg{gen: mt.gen, action: "reset", err: mt.ctrl.ResetToDefaults(ctx)}
	}
}

func (m *Model) retryCmd(k setting.Key) tea.Cmd {
	mt := m.mount
	return func() tea.Msg {
		mt.ctrl.RetrySetting(mt.ctx, k)
		return actionDoneMsg{gen: mt.gen, action: "retry"}
	}
}

func (m *Model) commitRegionsCmd() tea.Cmd {
	mt := m.mount
	m.busy = "Saving regions"
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(mt.ctx, ActionTimeout)
		defer cancel()
		return actionDoneMsg{gen: mt.gen, action: "commit regions", err: mt.regions.Commit(ctx)}
	}
}
