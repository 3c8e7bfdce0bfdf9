// Package console is the interactive query console: a schema-aware editor
// bound to a GraphQL endpoint, with async execution, a pretty-printed result
// pane and a performance overlay.
package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/requests"
	"github.com/querypad/querypad/schema"
	"github.com/querypad/querypad/storage"
)

// Model is the bubbletea model for the console. The editor owns the live
// query text; the execution controller only ever reads it at dispatch time.
type Model struct {
	q        queryer.Queryer
	provider *schema.Provider
	store    *storage.QueryStore
	logger   *zap.Logger

	editor textarea.Model
	output viewport.Model
	search textinput.Model
	spin   spinner.Model

	width  int
	height int

	// shared schema, nil until loaded and nil forever on load failure
	sch       *ast.Schema
	schemaErr error

	exec   ExecutionState
	result string

	markers     []schema.Marker
	suggestions []schema.Suggestion
	suggestIdx  int
	showSuggest bool

	searching bool

	streaming bool
	subEvents chan *requests.Response
	subCancel chan struct{}

	needsDefault bool

	status    string
	statusErr bool
	quitting  bool
}

// New builds the console. The schema provider, transport and store are
// constructed by the composition root and injected; nothing here reads
// ambient globals.
func New(q queryer.Queryer, provider *schema.Provider, store *storage.QueryStore, logger *zap.Logger) Model {
	ed := textarea.New()
	ed.Placeholder = "{ }"
	ed.CharLimit = 0
	ed.ShowLineNumbers = true
	ed.Prompt = ""
	// both modifier conventions move by word
	ed.KeyMap.WordForward.SetKeys("alt+right", "alt+f", "ctrl+right")
	ed.KeyMap.WordBackward.SetKeys("alt+left", "alt+b", "ctrl+left")
	ed.Focus()

	si := textinput.New()
	si.Prompt = "find: "
	si.Placeholder = "search query text"

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	m := Model{
		q:        q,
		provider: provider,
		store:    store,
		logger:   logger,
		editor:   ed,
		output:   viewport.New(0, 0),
		search:   si,
		spin:     sp,
		width:    100,
		height:   32,
	}

	if text, ok := store.Load(); ok {
		m.editor.SetValue(text)
	} else {
		m.needsDefault = true
	}

	return m
}

// Init loads the schema and, when no query was persisted, the viewer's
// organizations for the default template.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, loadSchemaCmd(m.provider)}
	if m.needsDefault {
		cmds = append(cmds, fetchOrganizationCmd(m.q))
	}
	return tea.Batch(cmds...)
}

// Text returns the live query text.
func (m Model) Text() string {
	return m.editor.Value()
}

// State returns the current execution state.
func (m Model) State() ExecutionState {
	return m.exec
}

// Result returns the pretty-printed text shown in the result pane.
func (m Model) Result() string {
	return m.result
}

// Suggestions returns the currently offered completions.
func (m Model) Suggestions() []schema.Suggestion {
	if !m.showSuggest {
		return nil
	}
	return m.suggestions
}

// cursorOffset converts the editor's row/column cursor into a byte offset
// into Value(). Query text is ASCII in practice, which keeps byte and rune
// offsets interchangeable here.
func (m Model) cursorOffset() int {
	text := m.editor.Value()
	lines := strings.Split(text, "\n")

	row := m.editor.Line()
	info := m.editor.LineInfo()
	col := info.StartColumn + info.ColumnOffset

	offset := 0
	for i := 0; i < row && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	if row < len(lines) && col > len(lines[row]) {
		col = len(lines[row])
	}
	offset += col
	if offset > len(text) {
		offset = len(text)
	}
	return offset
}

// moveCursorTo walks the cursor to the row/column containing offset.
func (m *Model) moveCursorTo(offset int) {
	lines := strings.Split(m.editor.Value(), "\n")
	row, col := 0, offset
	for row < len(lines)-1 && col > len(lines[row]) {
		col -= len(lines[row]) + 1
		row++
	}
	for m.editor.Line() > row {
		m.editor.CursorUp()
	}
	for m.editor.Line() < row {
		m.editor.CursorDown()
	}
	m.editor.SetCursor(col)
}

// persist writes the current text to the query store. Write failures are
// logged and dropped, never surfaced.
func (m *Model) persist() {
	if err := m.store.Save(m.editor.Value()); err != nil && m.logger != nil {
		m.logger.Warn("persist query", zap.Error(err))
	}
}

func (m *Model) relint() {
	m.markers = schema.Lint(m.sch, m.editor.Value())
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *Model) setError(err error) {
	if err == nil {
		m.status = ""
		m.statusErr = false
		return
	}
	m.status = err.Error()
	m.statusErr = true
}
