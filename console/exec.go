package console

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/requests"
	"github.com/querypad/querypad/schema"
)

type schemaLoadedMsg struct {
	schema *ast.Schema
	err    error
}

type orgLoadedMsg struct {
	org *Organization
}

type execDoneMsg struct {
	pretty      string
	performance string
}

type execFailedMsg struct {
	err error
}

type subStartedMsg struct {
	events chan *requests.Response
	cancel chan struct{}
}

type subEventMsg struct {
	resp *requests.Response
}

type subClosedMsg struct{}

func loadSchemaCmd(provider *schema.Provider) tea.Cmd {
	return func() tea.Msg {
		s := provider.Schema(context.Background())
		return schemaLoadedMsg{schema: s, err: provider.Err()}
	}
}

// executeCmd dispatches the snapshot taken at trigger time. Edits made while
// the request is in flight never affect it. Every exit path produces a
// message so the busy flag always resets: success, malformed body, and
// network failure alike.
func executeCmd(q queryer.Queryer, snapshot string) tea.Cmd {
	return func() tea.Msg {
		res, err := q.Query(context.Background(), &requests.Request{Query: snapshot})
		if err != nil {
			if res != nil && len(res.Body) != 0 {
				// non-2xx with a body still gets rendered
				if pretty, perr := prettyJSON(res.Body); perr == nil {
					return execDoneMsg{pretty: pretty, performance: res.Performance}
				}
			}
			return execFailedMsg{err: err}
		}

		pretty, err := prettyJSON(res.Body)
		if err != nil {
			return execFailedMsg{err: fmt.Errorf("malformed response: %w", err)}
		}

		return execDoneMsg{pretty: pretty, performance: res.Performance}
	}
}

// prettyJSON round-trips the raw body through encoding/json to indent every
// nested object with two spaces.
func prettyJSON(body []byte) (string, error) {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// isSubscription reports whether the snapshot's first operation is a
// subscription. Unparseable text is not: it goes over HTTP and the server
// reports the error.
func isSubscription(snapshot string) bool {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: snapshot})
	if err != nil || len(doc.Operations) == 0 {
		return false
	}
	return doc.Operations[0].Operation == ast.Subscription
}

func subscribeCmd(q queryer.Queryer, snapshot string) tea.Cmd {
	return func() tea.Msg {
		events := make(chan *requests.Response, 8)
		cancel := make(chan struct{})
		if err := q.Subscribe(context.Background(), &requests.Request{Query: snapshot}, cancel, events); err != nil {
			return execFailedMsg{err: err}
		}
		return subStartedMsg{events: events, cancel: cancel}
	}
}

func waitSubEventCmd(events chan *requests.Response) tea.Cmd {
	return func() tea.Msg {
		resp := <-events
		if resp == nil {
			return subClosedMsg{}
		}
		return subEventMsg{resp: resp}
	}
}

// viewerOrganizationsQuery feeds the default query builder; it only runs
// when no persisted query exists.
const viewerOrganizationsQuery = `query ConsoleViewer {
  viewer {
    organizations(first: 100) {
      edges {
        node {
          id
          name
          slug
        }
      }
    }
  }
}
`

// fetchOrganizationCmd loads the viewer's first organization. Any failure
// degrades to the no-organization default template.
func fetchOrganizationCmd(q queryer.Queryer) tea.Cmd {
	return func() tea.Msg {
		res, err := q.Query(context.Background(), &requests.Request{Query: viewerOrganizationsQuery})
		if err != nil {
			return orgLoadedMsg{}
		}

		var envelope struct {
			Data struct {
				Viewer struct {
					Organizations struct {
						Edges []struct {
							Node Organization `json:"node"`
						} `json:"edges"`
					} `json:"organizations"`
				} `json:"viewer"`
			} `json:"data"`
		}
		if err := json.Unmarshal(res.Body, &envelope); err != nil {
			return orgLoadedMsg{}
		}

		edges := envelope.Data.Viewer.Organizations.Edges
		if len(edges) == 0 {
			return orgLoadedMsg{}
		}
		org := edges[0].Node
		return orgLoadedMsg{org: &org}
	}
}
