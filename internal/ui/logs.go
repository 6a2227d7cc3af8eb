package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dials/internal/logtail"
)

// Log viewer constants
const (
	logRefreshInterval = 2 * time.Second
	logTailLines       = 500
)

// logView is the overlay that tails the dials log file.
type logView struct {
	open     bool
	gen      int
	follow   bool
	entries  []logtail.Entry
	err      error
	viewport viewport.Model
}

type logsLoadedMsg struct {
	gen   int
	lines []string
	err   error
}

type logTickMsg struct{ gen int }

func loadLogsCmd(path string, gen int) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsLoadedMsg{gen: gen}
		}
		lines, err := logtail.Read(path, logTailLines)
		return logsLoadedMsg{gen: gen, lines: lines, err: err}
	}
}

func logTickCmd(gen int) tea.Cmd {
	return tea.Tick(logRefreshInterval, func(time.Time) tea.Msg { return logTickMsg{gen: gen} })
}

func (m *Model) openLogs() tea.Cmd {
	m.logs.open = true
	m.logs.gen++
	m.logs.follow = true
	m.logs.viewport = viewport.New(max(m.width-4, 10), max(m.height-5, 3))
	m.logs.viewport.Style = lipgloss.NewStyle()
	m.refreshLogContent()
	return tea.Batch(loadLogsCmd(m.logFile, m.logs.gen), logTickCmd(m.logs.gen))
}

func (m *Model) closeLogs() {
	m.logs.open = false
	m.logs.gen++
}

func (m *Model) resizeLogs() {
	if !m.logs.open {
		return
	}
	m.logs.viewport.Width = max(m.width-4, 10)
	m.logs.viewport.Height = max(m.height-5, 3)
	m.refreshLogContent()
}

// handleLogsKey processes keyboard input while the log viewer is open.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs):
		m.closeLogs()
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, loadLogsCmd(m.logFile, m.logs.gen)
	case key.Matches(msg, m.keys.Top):
		m.logs.viewport.GotoTop()
		m.logs.follow = false
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		m.logs.follow = true
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.logs.viewport.ScrollUp(1)
		m.logs.follow = false
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.logs.viewport.ScrollDown(1)
		m.logs.follow = m.logs.viewport.AtBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	m.logs.follow = m.logs.viewport.AtBottom()
	return m, cmd
}

func (m *Model) refreshLogContent() {
	width := m.logs.viewport.Width
	lines := make([]string, 0, len(m.logs.entries))
	for _, e := range m.logs.entries {
		lines = append(lines, m.renderLogEntry(e, width))
	}
	m.logs.viewport.SetContent(strings.Join(lines, "\n"))
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

// renderLogEntry renders one record as "15:04:05 LEVEL [component] msg k=v".
func (m Model) renderLogEntry(e logtail.Entry, width int) string {
	styles := m.theme.Styles()
	if !e.Parsed() {
		return styles.Text.Render(truncate(e.Raw, width))
	}

	clock := logClock(e.Time)
	level := padRight(e.Level, 5)
	used := len(clock) + 1 + len(level) + 1
	var component string
	if e.Component != "" {
		component = "[" + e.Component + "]"
		used += len(component) + 1
	}

	var rest strings.Builder
	rest.WriteString(e.Message)
	for _, a := range e.Attrs {
		rest.WriteString(" " + a.Key + "=" + a.Value)
	}
	body := truncate(rest.String(), max(width-used, 10))
	msgPart, attrPart := body, ""
	if len(body) > len(e.Message) && strings.HasPrefix(body, e.Message) {
		msgPart, attrPart = e.Message, body[len(e.Message):]
	}

	out := styles.MutedText.Render(clock) + " " + logLevelStyle(styles, e.Level).Bold(true).Render(level) + " "
	if component != "" {
		out += styles.AccentText.Render(component) + " "
	}
	return out + styles.Text.Render(msgPart) + styles.FaintText.Render(attrPart)
}

func logLevelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}

// logClock shortens an RFC 3339 timestamp to its wall-clock part.
func logClock(ts string) string {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Local().Format("15:04:05")
	}
	return truncate(ts, 8)
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Log")
	if m.logFile != "" {
		title += " " + styles.MutedText.Render(truncate(m.logFile, max(m.width-20, 10)))
	}

	var content string
	switch {
	case m.logFile == "":
		content = styles.MutedText.Render("no log file configured")
	case m.logs.err != nil:
		content = styles.DangerText.Render(m.logs.err.Error())
	case len(m.logs.entries) == 0:
		content = styles.MutedText.Render("log is empty")
	default:
		content = m.logs.viewport.View()
	}

	status := "paused"
	if m.logs.follow {
		status = "following"
	}
	hints := styles.FaintText.Render(status + " · j/k scroll · g/G top/bottom · R refresh · esc close")

	box := styles.FocusedPane.
		Width(max(m.width-2, 10)).
		Height(max(m.height-3, 3)).
		Render(title + "\n" + content)
	return box + "\n" + hints
}
