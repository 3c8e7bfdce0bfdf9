package console

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/requests"
	"github.com/querypad/querypad/schema"
	"github.com/querypad/querypad/storage"
)

const testSDL = `
type Query {
	viewer: Viewer
}

type Viewer {
	user: User
}

type User {
	name: String
	email: String
}
`

type stubQueryer struct {
	result *queryer.Result
	err    error
}

var _ queryer.Queryer = &stubQueryer{}

func (s *stubQueryer) Query(ctx context.Context, req *requests.Request) (*queryer.Result, error) {
	return s.result, s.err
}

func (s *stubQueryer) Subscribe(ctx context.Context, req *requests.Request, closeCh <-chan struct{}, resCh chan *requests.Response) error {
	return nil
}

func (s *stubQueryer) URL() string {
	return "http://gql.test/graphql"
}

func newTestModel(t *testing.T) (Model, *storage.QueryStore) {
	t.Helper()

	store := storage.NewQueryStoreAt(filepath.Join(t.TempDir(), "query.graphql"))
	provider := schema.NewProvider(func(ctx context.Context) (*ast.Schema, error) {
		return nil, errors.New("not loaded in tests")
	})

	return New(&stubQueryer{}, provider, store, zap.NewNop()), store
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTriggersAutocomplete(t *testing.T) {
	for _, s := range []string{"a", "Z", "9", "_", "@", "("} {
		assert.True(t, triggersAutocomplete(keyMsg(s)), s)
	}
	for _, s := range []string{" ", "{", "}", "$", ":", "!"} {
		assert.False(t, triggersAutocomplete(keyMsg(s)), s)
	}
	assert.False(t, triggersAutocomplete(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.False(t, triggersAutocomplete(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}))
}

func TestNewUsesPersistedQuery(t *testing.T) {
	store := storage.NewQueryStoreAt(filepath.Join(t.TempDir(), "query.graphql"))
	require.NoError(t, store.Save("{ persisted }"))

	provider := schema.NewProvider(func(ctx context.Context) (*ast.Schema, error) {
		return nil, errors.New("not loaded in tests")
	})
	m := New(&stubQueryer{}, provider, store, zap.NewNop())

	assert.Equal(t, "{ persisted }", m.Text())

	// a late organization load must not clobber the persisted query
	m = applyMsg(t, m, orgLoadedMsg{org: &Organization{Name: "Acme", Slug: "acme"}})
	assert.Equal(t, "{ persisted }", m.Text())
}

func TestNewFallsBackToDefaultQuery(t *testing.T) {
	m, store := newTestModel(t)

	m = applyMsg(t, m, orgLoadedMsg{org: &Organization{Name: "Acme", Slug: "acme"}})
	assert.Contains(t, m.Text(), `organization(slug: "acme")`)

	// the default itself is not persisted until the user edits
	_, ok := store.Load()
	assert.False(t, ok)
}

func TestDefaultQueryNoOrganization(t *testing.T) {
	m, _ := newTestModel(t)

	m = applyMsg(t, m, orgLoadedMsg{})
	assert.Equal(t, DefaultQueryNoOrganization, m.Text())
}

func TestExecutionLifecycle(t *testing.T) {
	m, _ := newTestModel(t)
	m.editor.SetValue("{ viewer }")

	cmd := m.startExecution()
	require.NotNil(t, cmd)
	assert.True(t, m.State().Executing)
	assert.False(t, m.State().ExecutedFirstQuery)

	m = applyMsg(t, m, execDoneMsg{pretty: "{\n  \"data\": null\n}", performance: "db:12ms; gql:3ms"})

	st := m.State()
	assert.False(t, st.Executing)
	assert.True(t, st.ExecutedFirstQuery)
	assert.Equal(t, "db:12ms; gql:3ms", st.Performance)
	assert.NoError(t, st.Err)
	assert.Equal(t, "{\n  \"data\": null\n}", m.Result())
}

func TestExecutionFailureResetsExecuting(t *testing.T) {
	m, _ := newTestModel(t)

	m = applyMsg(t, m, execDoneMsg{pretty: "{}", performance: "db:1ms"})
	require.True(t, m.State().ExecutedFirstQuery)

	m.exec.Executing = true
	m = applyMsg(t, m, execFailedMsg{err: errors.New("connection refused")})

	st := m.State()
	assert.False(t, st.Executing)
	// monotonic: a later failure never resets the first-query flag
	assert.True(t, st.ExecutedFirstQuery)
	assert.Empty(t, st.Performance)
	assert.EqualError(t, st.Err, "connection refused")
}

func TestExecDoneWithoutPerformanceHeader(t *testing.T) {
	m, _ := newTestModel(t)

	m = applyMsg(t, m, execDoneMsg{pretty: "{}"})

	_, ok := m.State().Overlay()
	assert.False(t, ok)
}

func TestTypingPersistsAndSuggests(t *testing.T) {
	m, store := newTestModel(t)
	s, gerr := gqlparser.LoadSchema(&ast.Source{Name: "test", Input: testSDL})
	require.Nil(t, gerr)
	m.sch = s

	m.editor.SetValue("query { ")
	m = applyMsg(t, m, keyMsg("v"))

	assert.Equal(t, "query { v", m.Text())

	saved, ok := store.Load()
	assert.True(t, ok)
	assert.Equal(t, "query { v", saved)

	sugs := m.Suggestions()
	require.Len(t, sugs, 1)
	assert.Equal(t, "viewer", sugs[0].Label)
}

func TestTypingWithoutSchemaStillEdits(t *testing.T) {
	m, _ := newTestModel(t)

	m = applyMsg(t, m, keyMsg("x"))

	assert.Equal(t, "x", m.Text())
	assert.Empty(t, m.Suggestions())
}

func TestAcceptSuggestionInsertsRemainder(t *testing.T) {
	m, _ := newTestModel(t)
	s, gerr := gqlparser.LoadSchema(&ast.Source{Name: "test", Input: testSDL})
	require.Nil(t, gerr)
	m.sch = s

	m.editor.SetValue("query { ")
	m = applyMsg(t, m, keyMsg("v"))
	require.NotEmpty(t, m.Suggestions())

	m = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "query { viewer", m.Text())
	assert.Empty(t, m.Suggestions())
}

func TestExplicitTriggerAcceptsSingleCandidate(t *testing.T) {
	m, _ := newTestModel(t)
	s, gerr := gqlparser.LoadSchema(&ast.Source{Name: "test", Input: testSDL})
	require.Nil(t, gerr)
	m.sch = s

	m.editor.SetValue("query { viewer { user { na")
	m.triggerAutocomplete()

	assert.Equal(t, "query { viewer { user { name", m.Text())
}

func TestSchemaLoadFailureDegrades(t *testing.T) {
	m, _ := newTestModel(t)

	m = applyMsg(t, m, schemaLoadedMsg{err: errors.New("introspection disabled")})

	assert.Nil(t, m.sch)
	assert.Empty(t, m.markers)

	// execution is still allowed
	cmd := m.startExecution()
	assert.NotNil(t, cmd)
}

func TestLintMarkersOnEdit(t *testing.T) {
	m, _ := newTestModel(t)
	s, gerr := gqlparser.LoadSchema(&ast.Source{Name: "test", Input: testSDL})
	require.Nil(t, gerr)
	m.sch = s

	m.editor.SetValue("{ bogus }")
	m.relint()
	require.NotEmpty(t, m.markers)
	assert.Contains(t, m.markers[0].Message, "bogus")

	m.editor.SetValue("{ viewer { user { name } } }")
	m.relint()
	assert.Empty(t, m.markers)
}

func TestReformat(t *testing.T) {
	m, _ := newTestModel(t)
	m.editor.SetValue("query{viewer{user{name}}}")

	m.reformat()

	assert.Contains(t, m.Text(), "viewer")
	assert.Contains(t, m.Text(), "  ")
}

func TestReformatInvalidLeavesBufferUntouched(t *testing.T) {
	m, _ := newTestModel(t)
	m.editor.SetValue("query {{")

	m.reformat()

	assert.Equal(t, "query {{", m.Text())
	assert.True(t, m.statusErr)
}

func TestPrettyJSON(t *testing.T) {
	out, err := prettyJSON([]byte(`{"data":{"called":true}}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"data\": {\n    \"called\": true\n  }\n}", out)

	_, err = prettyJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestIsSubscription(t *testing.T) {
	assert.True(t, isSubscription("subscription { build { state } }"))
	assert.False(t, isSubscription("query { viewer }"))
	assert.False(t, isSubscription("{ viewer }"))
	assert.False(t, isSubscription("not graphql at all {{"))
}
