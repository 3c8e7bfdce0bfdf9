package introspection

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/requests"
)

// mockQueryer serves a canned introspection payload. Value is the content of
// the "data" envelope field.
type mockQueryer struct {
	Value string

	lastOperationName string
}

var _ queryer.Queryer = &mockQueryer{}

func (m *mockQueryer) Query(ctx context.Context, req *requests.Request) (*queryer.Result, error) {
	if req.OperationName != nil {
		m.lastOperationName = *req.OperationName
	}
	return &queryer.Result{Body: []byte(fmt.Sprintf(`{"data": %s}`, m.Value))}, nil
}

func (m *mockQueryer) Subscribe(ctx context.Context, req *requests.Request, closeCh <-chan struct{}, resCh chan *requests.Response) error {
	return nil
}

func (m *mockQueryer) URL() string {
	return "mockQueryer"
}

func TestIntrospectRootTypes(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": {"name": "Mutation"},
			"subscriptionType": {"name": "Subscription"},
			"types": [{
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "hello",
					"type": {"kind": "SCALAR", "name": "String"}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Mutation",
				"fields": [{
					"name": "saveWorld",
					"args": [{
						"name": "name",
						"type": {
							"kind": "NON_NULL",
							"name": null,
							"ofType": {"kind": "SCALAR", "name": "String", "ofType": null}
						}
					}],
					"type": {
						"kind": "NON_NULL",
						"name": null,
						"ofType": {"kind": "SCALAR", "name": "String", "ofType": null}
					}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Subscription",
				"fields": [{
					"name": "listenWorld",
					"type": {"kind": "SCALAR", "name": "String"}
				}]
			}],
			"directives": null
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, QueryName, q.lastOperationName)

	require.NotNil(t, schema.Query)
	require.NotNil(t, schema.Mutation)
	require.NotNil(t, schema.Subscription)

	hello := schema.Query.Fields.ForName("hello")
	require.NotNil(t, hello)
	assert.Equal(t, "String", hello.Type.Name())

	save := schema.Mutation.Fields.ForName("saveWorld")
	require.NotNil(t, save)
	assert.Equal(t, "String!", save.Type.String())
	require.NotNil(t, save.Arguments.ForName("name"))
	assert.Equal(t, "String!", save.Arguments.ForName("name").Type.String())
}

func TestIntrospectInterfaces(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"subscriptionType": null,
			"types": [{
				"kind": "INTERFACE",
				"name": "Node",
				"fields": [{
					"name": "id",
					"type": {"kind": "SCALAR", "name": "ID"}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Pipeline",
				"fields": [{
					"name": "id",
					"type": {"kind": "SCALAR", "name": "ID"}
				}],
				"interfaces": [{"kind": "INTERFACE", "name": "Node"}]
			}, {
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "pipeline",
					"type": {"kind": "OBJECT", "name": "Pipeline"}
				}]
			}],
			"directives": null
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	pipeline := schema.Types["Pipeline"]
	require.NotNil(t, pipeline)
	assert.Equal(t, []string{"Node"}, pipeline.Interfaces)

	possible := schema.PossibleTypes["Node"]
	require.Len(t, possible, 1)
	assert.Equal(t, "Pipeline", possible[0].Name)
}

func TestIntrospectUnions(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"subscriptionType": null,
			"types": [{
				"kind": "UNION",
				"name": "Actor",
				"possibleTypes": [
					{"kind": "OBJECT", "name": "User"},
					{"kind": "OBJECT", "name": "Bot"}
				]
			}, {
				"kind": "OBJECT",
				"name": "User",
				"fields": [{
					"name": "name",
					"type": {"kind": "SCALAR", "name": "String"}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Bot",
				"fields": [{
					"name": "token",
					"type": {"kind": "SCALAR", "name": "String"}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "actor",
					"type": {"kind": "UNION", "name": "Actor"}
				}]
			}],
			"directives": null
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	actor := schema.Types["Actor"]
	require.NotNil(t, actor)
	assert.Equal(t, ast.Union, actor.Kind)
	assert.ElementsMatch(t, []string{"User", "Bot"}, actor.Types)
}

func TestIntrospectEnums(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"subscriptionType": null,
			"types": [{
				"kind": "ENUM",
				"name": "BuildState",
				"enumValues": [
					{"name": "RUNNING"},
					{"name": "PASSED"},
					{"name": "FAILED"}
				]
			}, {
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "state",
					"type": {"kind": "ENUM", "name": "BuildState"}
				}]
			}],
			"directives": null
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	state := schema.Types["BuildState"]
	require.NotNil(t, state)
	require.Len(t, state.EnumValues, 3)
	assert.Equal(t, "RUNNING", state.EnumValues[0].Name)
}

func TestIntrospectDirectives(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"subscriptionType": null,
			"types": [{
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "hello",
					"type": {"kind": "SCALAR", "name": "ID"}
				}]
			}],
			"directives": [{
				"name": "cached",
				"description": "",
				"locations": ["FIELD"],
				"args": []
			}, {
				"name": "deprecated",
				"description": "",
				"locations": ["FIELD_DEFINITION"],
				"args": []
			}]
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, schema.Directives["cached"])
	assert.Equal(t, []ast.DirectiveLocation{ast.LocationField}, schema.Directives["cached"].Locations)
	// builtins come from gqlparser itself, not the remote definition
	require.NotNil(t, schema.Directives["deprecated"])
}

func TestIntrospectInputDefaults(t *testing.T) {
	q := &mockQueryer{Value: `{
		"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"subscriptionType": null,
			"types": [{
				"kind": "INPUT_OBJECT",
				"name": "SearchInput",
				"inputFields": [{
					"name": "term",
					"defaultValue": "all",
					"type": {"kind": "SCALAR", "name": "String"}
				}, {
					"name": "limit",
					"defaultValue": 25,
					"type": {"kind": "SCALAR", "name": "Int"}
				}]
			}, {
				"kind": "OBJECT",
				"name": "Query",
				"fields": [{
					"name": "search",
					"args": [{
						"name": "input",
						"type": {"kind": "INPUT_OBJECT", "name": "SearchInput"}
					}],
					"type": {"kind": "SCALAR", "name": "String"}
				}]
			}],
			"directives": null
		}
	}`}

	schema, err := Introspect(context.Background(), q)
	require.NoError(t, err)

	input := schema.Types["SearchInput"]
	require.NotNil(t, input)

	term := input.Fields.ForName("term")
	require.NotNil(t, term)
	require.NotNil(t, term.DefaultValue)
	assert.Equal(t, "all", term.DefaultValue.Raw)

	limit := input.Fields.ForName("limit")
	require.NotNil(t, limit)
	require.NotNil(t, limit.DefaultValue)
	assert.Equal(t, "25", limit.DefaultValue.Raw)
}

func TestIntrospectErrors(t *testing.T) {
	q := &mockErrQueryer{body: `{"data": null, "errors": [{"message": "introspection disabled"}]}`}
	_, err := Introspect(context.Background(), q)
	assert.ErrorContains(t, err, "introspection disabled")
}

type mockErrQueryer struct {
	body string
}

var _ queryer.Queryer = &mockErrQueryer{}

func (m *mockErrQueryer) Query(ctx context.Context, req *requests.Request) (*queryer.Result, error) {
	return &queryer.Result{Body: []byte(m.body)}, nil
}

func (m *mockErrQueryer) Subscribe(ctx context.Context, req *requests.Request, closeCh <-chan struct{}, resCh chan *requests.Response) error {
	return nil
}

func (m *mockErrQueryer) URL() string {
	return "mockErrQueryer"
}

func TestIntrospectMissingQueryRoot(t *testing.T) {
	q := &mockErrQueryer{body: `{"data": {"__schema": {"queryType": {"name": ""}}}}`}
	_, err := Introspect(context.Background(), q)
	assert.ErrorContains(t, err, "could not find the root query")
}
