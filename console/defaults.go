package console

import "strings"

// Organization is the zero-or-one organization summary used to build the
// fallback default query. It is never persisted.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DefaultQueryNoOrganization is shown to viewers who belong to no
// organization.
const DefaultQueryNoOrganization = `# Welcome to the GraphQL console!
#
# Press ctrl+space for schema-aware completions and ctrl+enter to execute.

query CurrentViewer {
  viewer {
    user {
      name
      email
    }
  }
}
`

// DefaultQueryWithOrganization digs into the viewer's first organization.
// The {{organization.*}} placeholders are substituted before display.
const DefaultQueryWithOrganization = `# Welcome to the GraphQL console!
#
# This query looks at {{organization.name}}. Press ctrl+space for
# schema-aware completions and ctrl+enter to execute.

query Organization {
  organization(slug: "{{organization.slug}}") {
    id
    name
    pipelines(first: 10) {
      edges {
        node {
          name
          slug
        }
      }
    }
  }
}
`

// BuildDefault returns the fallback query used when no query was ever
// persisted. Substitution is plain string interpolation: the inputs are
// trusted identifiers from the authenticated session, so no escaping is
// applied. Output is byte-identical for identical inputs.
func BuildDefault(hasOrganization bool, org *Organization) string {
	if !hasOrganization || org == nil {
		return DefaultQueryNoOrganization
	}
	return interpolateQuery(DefaultQueryWithOrganization, org)
}

func interpolateQuery(template string, org *Organization) string {
	return strings.NewReplacer(
		"{{organization.id}}", org.ID,
		"{{organization.name}}", org.Name,
		"{{organization.slug}}", org.Slug,
	).Replace(template)
}
