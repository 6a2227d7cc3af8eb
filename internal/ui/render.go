package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dials/internal/notify"
)

// renderMain renders header, panes and footer.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 3)

	sidebar := m.renderSidebar(bodyHeight)
	mainWidth := max(m.width-lipgloss.Width(sidebar), 20)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, m.renderPanel(mainWidth, bodyHeight))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("dials", styles.Logo)}
	if m.apiBase != "" {
		parts = append(parts, bg.Render(truncate(m.apiBase, 40), styles.MutedText))
	}
	if m.live != nil {
		if m.live() {
			parts = append(parts, bg.Render("● live", styles.SuccessText))
		} else {
			parts = append(parts, bg.Render("○ offline", styles.WarningText))
		}
	}
	if m.cacheStats != nil && m.width >= LayoutCompactWidth {
		stats := m.cacheStats()
		parts = append(parts, bg.Render(fmt.Sprintf("cache %d · cleared %d", len(stats.Sections), stats.Invalidations), styles.FaintText))
	}
	if m.mount != nil {
		title := m.currentDef().Title
		if m.snap.FirstLoad {
			title += " " + m.spinner.View()
		}
		parts = append(parts, bg.Render(title, styles.AccentText.Bold(true)))
	}
	if m.busy != "" {
		parts = append(parts, bg.Render(m.busy+"…", styles.WarningText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) renderSidebar(height int) string {
	styles := m.theme.Styles()
	inner := SidebarWidth - 2

	lines := make([]string, 0, len(m.defs)+2)
	lines = append(lines, styles.FaintText.Render("SECTIONS"), "")
	for i, def := range m.defs {
		label := padRight(" "+truncate(def.Title, inner-2), inner)
		switch {
		case i == m.sectionIdx && m.focus == focusSidebar:
			lines = append(lines, styles.Selected.Render(label))
		case i == m.sectionIdx:
			lines = append(lines, styles.AccentText.Bold(true).Render(label))
		default:
			lines = append(lines, styles.Text.Render(label))
		}
	}

	pane := styles.Pane
	if m.focus == focusSidebar {
		pane = styles.FocusedPane
	}
	return pane.Width(inner).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderPanel(width, height int) string {
	styles := m.theme.Styles()
	inner := max(width-2, 10)
	def := m.currentDef()

	var lines []string
	lines = append(lines, styles.FaintText.Render(strings.ToUpper(shortSection(string(def.Section)))), "")

	for i, spec := range def.Fields {
		state := m.snap.Fields[spec.Key]
		enabled := enabledIn(def, m.snap, spec.Key)
		selected := i == m.fieldIdx && m.focus == focusFields

		cursor := "  "
		if selected {
			cursor = "› "
		}
		label := padRight(truncate(spec.DisplayLabel(), LabelWidth-2), LabelWidth)

		var value string
		badge := fieldBadge(state, enabled)
		switch badge {
		case badgeLoading:
			value = m.spinner.View() + " " + styles.BadgeStyle(badge).Render(badge)
		case badgeError:
			value = styles.DangerText.Render("⚠ ") + styles.BadgeStyle(badge).Render(badge) + styles.FaintText.Render(" r to retry")
		case badgeDisabled:
			value = styles.FaintText.Render(formatValue(spec, state.Value)) + " " + styles.BadgeStyle(badge).Render(badge)
		default:
			value = styles.Text.Render(truncate(formatValue(spec, state.Value), inner-LabelWidth-12))
		}

		line := cursor + label
		if selected {
			line = styles.Selected.Render(line)
		} else if !enabled {
			line = styles.FaintText.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		lines = append(lines, line+value)
	}

	if m.focus == focusFields && len(def.Fields) > 0 {
		if spec := def.Fields[clamp(m.fieldIdx, len(def.Fields))]; spec.Help != "" {
			lines = append(lines, "", styles.MutedText.Render("  "+spec.Help))
		}
	}

	if list := m.renderList(inner); list != "" {
		lines = append(lines, "", list)
	}

	pane := styles.Pane
	if m.focus != focusSidebar {
		pane = styles.FocusedPane
	}
	return pane.Width(inner).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// renderList renders the list editor of the mounted section, if any.
func (m Model) renderList(width int) string {
	if m.mount == nil {
		return ""
	}
	styles := m.theme.Styles()
	focused := m.focus == focusList

	row := func(i int, text string) string {
		text = padRight("  "+truncate(text, width-6), width-2)
		if focused && i == m.listIdx {
			return styles.Selected.Render(text)
		}
		return styles.Text.Render(text)
	}
	title := func(name string, dirty bool) string {
		t := styles.AccentText.Bold(true).Render(name)
		if dirty {
			t += " " + styles.BadgeStyle(badgeDirty).Render("unsaved")
		}
		return t
	}

	var lines []string
	switch {
	case m.mount.strings != nil:
		spec, _ := m.currentDef().Field(m.mount.stringsKey)
		lines = append(lines, title(spec.DisplayLabel(), m.mount.strings.Dirty()))
		for i, opt := range m.mount.strings.Options() {
			mark := "[ ]"
			if m.mount.strings.Selected(opt) {
				mark = "[x]"
			}
			lines = append(lines, row(i, mark+" "+opt))
		}
		if focused {
			lines = append(lines, styles.FaintText.Render("  space toggle · c commit · x discard"))
		}

	case m.mount.regions != nil:
		lines = append(lines, title("Regions", m.mount.regions.Dirty()))
		if !m.mount.regions.Loaded() {
			lines = append(lines, "  "+m.spinner.View()+" "+styles.MutedText.Render("loading regions"))
			break
		}
		rows := m.mount.regions.Rows()
		if len(rows) == 0 {
			lines = append(lines, styles.MutedText.Render("  (no regions)"))
		}
		for i, r := range rows {
			text := r.Name
			if r.ID == "" {
				text += " (new)"
			}
			lines = append(lines, row(i, text))
		}
		if focused {
			lines = append(lines, styles.FaintText.Render("  a add · enter rename · d delete · c commit · x discard"))
		}

	default:
		return ""
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if len(m.toasts) > 0 {
		t := m.toasts[len(m.toasts)-1]
		return styles.Footer.Width(m.width).Render(m.renderToast(t, styles, bg))
	}

	if m.width < LayoutCompactWidth {
		return styles.Footer.Width(m.width).Render(bg.Render("? help", styles.MutedText))
	}
	hints := make([]string, 0, 4)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, bg.Render(h.Key, styles.WarningText)+bg.Spaces(1)+bg.Render(h.Desc, styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(hints, "  "))
}

func (m Model) renderToast(t notify.Toast, styles Styles, bg BgStyle) string {
	icon, style := "✓", styles.SuccessText
	if t.Level == notify.LevelError {
		icon, style = "✗", styles.DangerText
	}
	text := bg.Render(icon+" "+t.Message, style)
	if t.Detail != "" {
		text += bg.Spaces(2) + bg.Render(truncate(t.Detail, max(m.width-len(t.Message)-10, 10)), styles.MutedText)
	}
	if n := len(m.toasts); n > 1 {
		text += bg.Spaces(2) + bg.Render(fmt.Sprintf("+%d", n-1), styles.FaintText)
	}
	return text
}
