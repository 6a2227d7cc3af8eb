package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// inputTarget says what an input modal edits.
type inputTarget int

const (
	targetField inputTarget = iota
	targetRegionAdd
	targetRegionRename
)

// inputSubmittedMsg carries the text confirmed in an input modal.
type inputSubmittedMsg struct {
	target inputTarget
	key    string // field key for targetField
	row    int    // region row for targetRegionRename
	text   string
}

// inputModal edits one line of text with a bubbles textinput.
type inputModal struct {
	title  string
	hint   string
	input  textinput.Model
	target inputTarget
	key    string
	row    int
}

func newInputModal(title, hint, value string, target inputTarget) *inputModal {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 512
	ti.Width = inputModalWidth - 8
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return &inputModal{title: title, hint: hint, input: ti, target: target}
}

func (m *inputModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Confirm):
			submitted := inputSubmittedMsg{target: m.target, key: m.key, row: m.row, text: m.input.Value()}
			return m, func() tea.Msg { return submitted }, true
		case key.Matches(km, keys.Escape):
			return m, nil, true
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

func (m *inputModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.hint != "" {
		b.WriteString(styles.MutedText.Render(m.hint))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter confirm · esc cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(inputModalWidth).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
