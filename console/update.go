package console

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/querypad/querypad/format"
	"github.com/querypad/querypad/schema"
)

// autoCompleteAfterKey is the restricted character class whose key-ups
// refresh the suggestion popup. Everything else leaves it alone.
var autoCompleteAfterKey = regexp.MustCompile(`^[a-zA-Z0-9_@(]$`)

func triggersAutocomplete(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return false
	}
	return autoCompleteAfterKey.MatchString(string(msg.Runes))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.exec.Executing && !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case schemaLoadedMsg:
		m.sch = msg.schema
		m.schemaErr = msg.err
		if msg.err != nil {
			// plain text editing still works, execution stays permitted
			m.setStatus("schema unavailable, lint and autocomplete disabled")
			if m.logger != nil {
				m.logger.Warn("load schema", zap.Error(msg.err))
			}
		}
		m.relint()
		return m, nil

	case orgLoadedMsg:
		if m.needsDefault {
			m.needsDefault = false
			m.editor.SetValue(BuildDefault(msg.org != nil, msg.org))
			m.moveCursorTo(0)
			m.relint()
		}
		return m, nil

	case execDoneMsg:
		m.exec.Executing = false
		m.exec.ExecutedFirstQuery = true
		m.exec.Performance = msg.performance
		m.exec.Err = nil
		m.result = msg.pretty
		m.output.SetContent(msg.pretty)
		m.output.GotoTop()
		m.setStatus("done")
		return m, nil

	case execFailedMsg:
		m.exec.Executing = false
		m.exec.Err = msg.err
		m.exec.Performance = ""
		m.setError(msg.err)
		return m, nil

	case subStartedMsg:
		m.exec.Executing = false
		m.streaming = true
		m.subEvents = msg.events
		m.subCancel = msg.cancel
		m.setStatus("streaming, press esc to stop")
		return m, waitSubEventCmd(msg.events)

	case subEventMsg:
		m.exec.ExecutedFirstQuery = true
		if pretty, err := json.Marshal(msg.resp); err == nil {
			if indented, err := prettyJSON(pretty); err == nil {
				m.result = indented
				m.output.SetContent(indented)
			}
		}
		return m, waitSubEventCmd(m.subEvents)

	case subClosedMsg:
		m.streaming = false
		m.subEvents = nil
		m.subCancel = nil
		m.setStatus("stream closed")
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.stopStream()
		m.quitting = true
		return m, tea.Quit
	}

	if m.searching {
		switch key {
		case "esc":
			m.searching = false
			m.search.Blur()
		case "enter":
			m.jumpToMatch()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key {
	case "ctrl+enter", "alt+enter":
		// re-entrant by design: a second execution races the first and the
		// last response to arrive wins the displayed state
		return m, m.startExecution()
	case "ctrl+f":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "ctrl+p":
		m.reformat()
		return m, nil
	case "ctrl+@", "ctrl+space", "alt+space", "shift+space":
		m.triggerAutocomplete()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	case "esc":
		switch {
		case m.showSuggest:
			m.showSuggest = false
		case m.streaming:
			m.stopStream()
		}
		return m, nil
	}

	if m.showSuggest {
		switch key {
		case "down":
			m.suggestIdx = (m.suggestIdx + 1) % len(m.suggestions)
			return m, nil
		case "up":
			m.suggestIdx = (m.suggestIdx + len(m.suggestions) - 1) % len(m.suggestions)
			return m, nil
		case "tab", "enter":
			m.acceptSuggestion()
			return m, nil
		}
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if m.editor.Value() != before {
		// every change persists, redundant writes are fine
		m.persist()
		m.relint()
	}

	switch {
	case triggersAutocomplete(msg):
		m.refreshSuggestions(false)
	case m.showSuggest && key == "backspace":
		m.refreshSuggestions(false)
	case m.showSuggest:
		m.showSuggest = false
	}

	return m, cmd
}

// startExecution snapshots the editor text and dispatches it. The busy flag
// stays up until the response message lands, success or not.
func (m *Model) startExecution() tea.Cmd {
	snapshot := m.editor.Value()

	m.exec.Executing = true
	m.exec.Performance = ""
	m.exec.Err = nil
	m.setStatus("")

	if isSubscription(snapshot) {
		m.stopStream()
		return tea.Batch(m.spin.Tick, subscribeCmd(m.q, snapshot))
	}
	return tea.Batch(m.spin.Tick, executeCmd(m.q, snapshot))
}

func (m *Model) stopStream() {
	if m.subCancel != nil {
		close(m.subCancel)
		m.subCancel = nil
	}
	m.streaming = false
}

func (m *Model) triggerAutocomplete() {
	m.refreshSuggestions(true)
}

func (m *Model) refreshSuggestions(acceptSingle bool) {
	sugs := schema.Complete(m.sch, m.editor.Value(), m.cursorOffset())
	m.suggestions = sugs
	m.suggestIdx = 0
	m.showSuggest = len(sugs) > 0

	// explicit trigger with exactly one candidate takes it immediately
	if acceptSingle && len(sugs) == 1 {
		m.acceptSuggestion()
	}
}

func (m *Model) acceptSuggestion() {
	if !m.showSuggest || len(m.suggestions) == 0 {
		return
	}
	label := m.suggestions[m.suggestIdx].Label
	text := m.editor.Value()
	offset := m.cursorOffset()
	start, token := schema.CurrentToken(text, offset)

	at := strings.HasPrefix(token, "@")
	word := strings.TrimPrefix(token, "@")

	if strings.HasPrefix(label, word) {
		m.editor.InsertString(label[len(word):])
	} else {
		prefix := ""
		if at {
			prefix = "@"
		}
		m.editor.SetValue(text[:start] + prefix + label + text[offset:])
		m.moveCursorTo(start + len(prefix) + len(label))
	}

	m.showSuggest = false
	m.persist()
	m.relint()
}

func (m *Model) reformat() {
	pretty, err := format.Document(m.editor.Value())
	if err != nil {
		m.setError(fmt.Errorf("cannot format: %w", err))
		return
	}
	m.editor.SetValue(pretty)
	m.persist()
	m.relint()
	m.setStatus("formatted")
}

// jumpToMatch moves the cursor to the next line containing the search term,
// wrapping around the end of the buffer.
func (m *Model) jumpToMatch() {
	term := strings.ToLower(m.search.Value())
	if term == "" {
		return
	}
	lines := strings.Split(m.editor.Value(), "\n")
	for i := 1; i <= len(lines); i++ {
		row := (m.editor.Line() + i) % len(lines)
		if col := strings.Index(strings.ToLower(lines[row]), term); col >= 0 {
			for m.editor.Line() > row {
				m.editor.CursorUp()
			}
			for m.editor.Line() < row {
				m.editor.CursorDown()
			}
			m.editor.SetCursor(col)
			m.setStatus("")
			return
		}
	}
	m.setStatus(fmt.Sprintf("no match for %q", m.search.Value()))
}
