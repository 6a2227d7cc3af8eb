package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Logs       key.Binding
	Dismiss    key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Panel actions
	Reload   key.Binding
	Defaults key.Binding
	Retry    key.Binding

	// Field editing
	Toggle key.Binding
	Prev   key.Binding
	Next   key.Binding
	Edit   key.Binding

	// List editors
	Add    key.Binding
	Delete key.Binding
	Commit key.Binding
	Cancel key.Binding

	// Modal input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log viewer"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Dismiss toast"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next pane"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to sections"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload section"),
		),
		Defaults: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Reset to defaults"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Retry field"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle"),
		),
		Prev: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Previous option"),
		),
		Next: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Next option"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Edit"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add row"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete row"),
		),
		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Commit list"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Discard list edits"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the footer hint.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Reload, k.Defaults, k.Quit}
}

// FullHelp returns key bindings grouped the way the help overlay shows them.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Escape, k.Up, k.Down, k.Top, k.Bottom},
		{k.Toggle, k.Prev, k.Next, k.Edit, k.Retry},
		{k.Reload, k.Defaults},
		{k.Add, k.Delete, k.Commit, k.Cancel},
		{k.Logs, k.Dismiss, k.CycleTheme, k.Help, k.Quit},
	}
}
