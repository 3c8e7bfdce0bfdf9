package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	perfStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	lintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	suggestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	suggestSelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// vertical space spent on chrome around the two panes: title, lint bar,
// status line, help line and the pane borders.
const chromeHeight = 6

// layout resizes the editor and the result viewport after a terminal resize.
func (m *Model) layout() {
	paneW := m.width/2 - 2
	if paneW < 20 {
		paneW = 20
	}
	bodyH := m.height - chromeHeight
	if bodyH < 5 {
		bodyH = 5
	}

	m.editor.SetWidth(paneW)
	m.editor.SetHeight(bodyH)
	m.output.Width = paneW
	m.output.Height = bodyH
	m.search.Width = paneW - len(m.search.Prompt) - 2
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(" querypad "),
		urlStyle.Render(m.q.URL()),
	)

	editorPane := lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("query"),
		paneStyle.Render(m.editor.View()),
	)
	resultPane := lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("results"),
		paneStyle.Render(m.resultView()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, editorPane, resultPane)

	sections := []string{title, body}
	if popup := m.suggestView(); popup != "" {
		sections = append(sections, popup)
	}
	sections = append(sections, m.lintView(), m.statusView(), m.helpView())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// resultView renders the output pane. Before the first execution the pane is
// only the centered instructional overlay; afterwards it is the result text
// with the performance breakdown pinned underneath when one was captured.
func (m Model) resultView() string {
	overlay, ok := m.exec.Overlay()

	if !m.exec.ExecutedFirstQuery {
		return lipgloss.Place(m.output.Width, m.output.Height,
			lipgloss.Center, lipgloss.Center,
			hintStyle.Render(overlay))
	}

	view := m.output.View()
	if ok {
		view = lipgloss.JoinVertical(lipgloss.Left, view, perfStyle.Render(overlay))
	}
	return view
}

func (m Model) suggestView() string {
	if !m.showSuggest || len(m.suggestions) == 0 {
		return ""
	}

	// cap the popup so a long candidate list never pushes the chrome out
	const maxRows = 8
	rows := make([]string, 0, maxRows)
	for i, s := range m.suggestions {
		if i == maxRows {
			rows = append(rows, suggestStyle.Render(fmt.Sprintf("… %d more", len(m.suggestions)-maxRows)))
			break
		}
		line := s.Label
		if s.Detail != "" {
			line += "  " + s.Detail
		}
		if i == m.suggestIdx {
			rows = append(rows, suggestSelStyle.Render(line))
		} else {
			rows = append(rows, suggestStyle.Render(line))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) lintView() string {
	if len(m.markers) == 0 {
		return ""
	}
	const maxShown = 3
	parts := make([]string, 0, maxShown)
	for i, mk := range m.markers {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("(+%d more)", len(m.markers)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("%d:%d %s", mk.Line, mk.Column, mk.Message))
	}
	return lintStyle.Render(strings.Join(parts, "  "))
}

func (m Model) statusView() string {
	if m.searching {
		return m.search.View()
	}
	switch {
	case m.exec.Executing:
		return m.spin.View() + " Executing…"
	case m.streaming:
		return m.spin.View() + " Streaming (esc stops)"
	case m.statusErr:
		return errStyle.Render(m.status)
	default:
		return m.status
	}
}

func (m Model) helpView() string {
	return helpStyle.Render("ctrl+enter execute · ctrl+space complete · ctrl+p format · ctrl+f find · ctrl+c quit")
}
