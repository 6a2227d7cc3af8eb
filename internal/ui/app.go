package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dials/internal/logtail"
	"github.com/five82/dials/internal/notify"
	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/prefs"
	"github.com/five82/dials/internal/sections"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/state"
)

// focusArea is the pane receiving navigation keys.
type focusArea int

const (
	focusSidebar focusArea = iota
	focusFields
	focusList
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Registry     *sections.Registry
	Deps         panel.Deps
	PanelOptions []panel.Option
	Regions      panel.RegionStore
	Toasts       *notify.Center
	Live         func() bool
	CacheStats   func() state.Snapshot
	APIBase      string
	ThemeName    string
	PrefsPath    string
	LogFile      string
	Section      setting.SectionPath
	Logger       *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	deps        panel.Deps
	panelOpts   []panel.Option
	regionStore panel.RegionStore
	center      *notify.Center
	live        func() bool
	cacheStats  func() state.Snapshot
	apiBase     string
	prefsPath   string
	logFile     string
	prefs       prefs.Prefs
	logger      *slog.Logger

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal
	logs     logView
	spinner  spinner.Model
	toasts   []notify.Toast

	// Navigation
	defs       []panel.Definition
	sectionIdx int
	focus      focusArea
	fieldIdx   int
	listIdx    int

	// Mounted panel
	mount    *mount
	gen      int
	snap     panel.Snapshot
	busy     string
	startCmd tea.Cmd
}

// New creates the model and mounts the initial section.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	registry := opts.Registry
	if registry == nil {
		registry = sections.NewRegistry(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "ui")
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	deps := opts.Deps
	if deps.Notifier == nil && opts.Toasts != nil {
		deps.Notifier = opts.Toasts
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		deps:        deps,
		panelOpts:   opts.PanelOptions,
		regionStore: opts.Regions,
		center:      opts.Toasts,
		live:        opts.Live,
		cacheStats:  opts.CacheStats,
		apiBase:     opts.APIBase,
		prefsPath:   prefsPath,
		logFile:     opts.LogFile,
		prefs:       prefs.Prefs{Theme: themeName, LastSection: string(opts.Section)},
		logger:      logger,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		spinner:     sp,
		defs:        registry.All(),
	}
	if idx := registry.Index(opts.Section); idx >= 0 {
		m.sectionIdx = idx
	}
	if len(m.defs) > 0 {
		m.startCmd = m.mountSection(m.sectionIdx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd, m.spinner.Tick, tickCmd(ToastRefresh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogs()
		return m, nil

	case logsLoadedMsg:
		if !m.logs.open || msg.gen != m.logs.gen {
			return m, nil
		}
		m.logs.err = msg.err
		m.logs.entries = logtail.ParseLines(msg.lines)
		m.refreshLogContent()
		return m, nil

	case logTickMsg:
		if !m.logs.open || msg.gen != m.logs.gen {
			return m, nil
		}
		return m, tea.Batch(loadLogsCmd(m.logFile, m.logs.gen), logTickCmd(m.logs.gen))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.center != nil {
			m.toasts = m.center.Active()
		}
		return m, tickCmd(ToastRefresh)

	case snapshotMsg:
		if m.mount == nil || msg.gen != m.mount.gen {
			return m, nil
		}
		m.snap = msg.snap
		m.mount.syncList()
		return m, waitSnapshot(m.mount)

	case actionDoneMsg:
		if m.mount == nil || msg.gen != m.mount.gen {
			return m, nil
		}
		m.busy = ""
		m.snap = m.mount.ctrl.Snapshot()
		m.mount.syncList()
		m.clampCursors()
		if msg.err != nil {
			m.logger.Warn("panel action failed", "action", msg.action, "error", msg.err)
		}
		return m, nil

	case inputSubmittedMsg:
		m.applyInput(msg)
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.logs.open {
		return m.renderLogs()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.logs.open {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unmount()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		cmd := m.openLogs()
		return m, cmd

	case key.Matches(msg, m.keys.Dismiss):
		if m.center != nil {
			m.center.Dismiss()
			m.toasts = m.center.Active()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.cycleFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.cycleFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.focus = focusSidebar
		return m, nil
	}

	if m.mount != nil {
		switch {
		case key.Matches(msg, m.keys.Reload):
			cmd := m.reloadCmd()
			return m, cmd
		case key.Matches(msg, m.keys.Defaults):
			cmd := m.resetCmd()
			return m, cmd
		}
	}

	switch m.focus {
	case focusFields:
		return m.handleFieldKey(msg)
	case focusList:
		return m.handleListKey(msg)
	default:
		return m.handleSidebarKey(msg)
	}
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next := m.sectionIdx
	switch {
	case key.Matches(msg, m.keys.Up):
		next--
	case key.Matches(msg, m.keys.Down):
		next++
	case key.Matches(msg, m.keys.Top):
		next = 0
	case key.Matches(msg, m.keys.Bottom):
		next = len(m.defs) - 1
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Next):
		m.focus = focusFields
		return m, nil
	default:
		return m, nil
	}
	next = clamp(next, len(m.defs))
	if next == m.sectionIdx {
		return m, nil
	}
	cmd := m.mountSection(next)
	return m, cmd
}

func (m Model) handleFieldKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	def := m.currentDef()
	n := len(def.Fields)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.fieldIdx = clamp(m.fieldIdx-1, n)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.fieldIdx = clamp(m.fieldIdx+1, n)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.fieldIdx = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.fieldIdx = clamp(n-1, n)
		return m, nil
	}
	if n == 0 || m.mount == nil {
		return m, nil
	}

	spec := def.Fields[clamp(m.fieldIdx, n)]
	field := m.snap.Fields[spec.Key]

	if key.Matches(msg, m.keys.Retry) {
		if field.Error {
			return m, m.retryCmd(spec.Key)
		}
		return m, nil
	}

	if !field.Loaded() || !enabledIn(def, m.snap, spec.Key) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if b, ok := field.Value.AsBool(); ok {
			m.set(spec.Key, setting.Bool(!b))
		}
	case key.Matches(msg, m.keys.Prev):
		if v, ok := stepValue(spec, field.Value, -1); ok {
			m.set(spec.Key, v)
		}
	case key.Matches(msg, m.keys.Next):
		if v, ok := stepValue(spec, field.Value, 1); ok {
			m.set(spec.Key, v)
		}
	case key.Matches(msg, m.keys.Edit):
		switch {
		case spec.Kind == setting.KindStringList && m.mount.strings != nil:
			m.focus = focusList
			m.listIdx = 0
		case usesInput(spec):
			modal := newInputModal(spec.DisplayLabel(), inputHint(spec), inputText(field.Value), targetField)
			modal.key = string(spec.Key)
			m.modal = modal
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mt := m.mount
	if mt == nil || (mt.strings == nil && mt.regions == nil) {
		m.focus = focusFields
		return m, nil
	}
	n := m.listLen()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.listIdx = clamp(m.listIdx-1, n)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.listIdx = clamp(m.listIdx+1, n)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.listIdx = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.listIdx = clamp(n-1, n)
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		mt.list().Cancel()
		m.clampCursors()
		return m, nil
	}

	if mt.strings != nil {
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if opts := mt.strings.Options(); m.listIdx < len(opts) {
				mt.strings.Toggle(opts[m.listIdx])
			}
		case key.Matches(msg, m.keys.Commit):
			if err := mt.strings.Commit(m.ctx); err != nil {
				m.logger.Info("list commit rejected", "key", mt.stringsKey, "error", err)
			}
			m.snap = mt.ctrl.Snapshot()
		}
		return m, nil
	}

	rows := mt.regions.Rows()
	switch {
	case key.Matches(msg, m.keys.Add):
		modal := newInputModal("New region", "", "", targetRegionAdd)
		m.modal = modal
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if m.listIdx < len(rows) {
			modal := newInputModal("Rename region", "", rows[m.listIdx].Name, targetRegionRename)
			modal.row = m.listIdx
			m.modal = modal
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if m.listIdx < len(rows) {
			_ = mt.regions.Remove(m.listIdx)
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.Commit):
		if mt.regions.Dirty() {
			cmd := m.commitRegionsCmd()
			return m, cmd
		}
	}
	return m, nil
}

// applyInput routes text confirmed in the input modal.
func (m *Model) applyInput(msg inputSubmittedMsg) {
	if m.mount == nil {
		return
	}
	switch msg.target {
	case targetField:
		spec, ok := m.currentDef().Field(setting.Key(msg.key))
		if !ok {
			return
		}
		v, err := parseInput(spec, msg.text)
		if err != nil {
			m.notifyError("Invalid "+spec.DisplayLabel(), err)
			return
		}
		m.set(spec.Key, v)
	case targetRegionAdd:
		if m.mount.regions != nil {
			if err := m.mount.regions.Add(msg.text); err != nil {
				m.notifyError("Region not added", err)
			}
		}
	case targetRegionRename:
		if m.mount.regions != nil {
			if err := m.mount.regions.Rename(msg.row, msg.text); err != nil {
				m.notifyError("Region not renamed", err)
			}
		}
	}
}

// set forwards a user edit to the controller and refreshes the view.
func (m *Model) set(key setting.Key, v setting.Value) {
	if err := m.mount.ctrl.Set(key, v); err != nil {
		m.logger.Debug("edit not written", "key", key, "error", err)
	}
	m.snap = m.mount.ctrl.Snapshot()
}

func (m *Model) notifyError(message string, err error) {
	m.logger.Info(message, "error", err)
	if m.deps.Notifier != nil {
		m.deps.Notifier.ShowErrorSnackbar(message, notify.WithDetail(err.Error()))
	}
}

func (m *Model) cycleFocus(dir int) {
	areas := []focusArea{focusSidebar, focusFields}
	if m.mount != nil && (m.mount.strings != nil || m.mount.regions != nil) {
		areas = append(areas, focusList)
	}
	idx := 0
	for i, a := range areas {
		if a == m.focus {
			idx = i
		}
	}
	m.focus = areas[(idx+dir+len(areas))%len(areas)]
}

func (m *Model) clampCursors() {
	m.fieldIdx = clamp(m.fieldIdx, len(m.currentDef().Fields))
	m.listIdx = clamp(m.listIdx, m.listLen())
}

func (m Model) listLen() int {
	switch {
	case m.mount == nil:
		return 0
	case m.mount.strings != nil:
		return len(m.mount.strings.Options())
	case m.mount.regions != nil:
		return len(m.mount.regions.Rows())
	}
	return 0
}

func (m Model) currentDef() panel.Definition {
	if len(m.defs) == 0 {
		return panel.Definition{}
	}
	return m.defs[clamp(m.sectionIdx, len(m.defs))]
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

// enabledIn evaluates the dependency rules of def against snap.
func enabledIn(def panel.Definition, snap panel.Snapshot, k setting.Key) bool {
	for _, rule := range def.Rules {
		if dep, ok := rule.(panel.DependsOnRule); ok && !dep.Enabled(k, snap.Value) {
			return false
		}
	}
	return true
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	gen  int
	snap panel.Snapshot
}

type actionDoneMsg struct {
	gen    int
	action string
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.unmount()
	} else {
		m.unmount()
	}
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
