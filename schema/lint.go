package schema

import (
	"strings"

	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/querypad/querypad/gqlerrors"
)

// Marker is a single lint finding pointing at a position in the query text.
// Lines and columns are 1-based, matching gqlparser positions.
type Marker struct {
	Line    int
	Column  int
	Message string
}

// Lint parses and validates the query text against the schema. A nil schema
// or blank text yields no markers: lint degrades to a no-op rather than
// failing when the schema never loaded.
func Lint(schema *ast.Schema, text string) []Marker {
	if schema == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: text})
	if err != nil {
		return markersFromError(err)
	}

	if listErr := validator.Validate(schema, doc); len(listErr) != 0 {
		return markersFromError(listErr)
	}

	return nil
}

func markersFromError(err error) []Marker {
	return lo.Map(gqlerrors.FormatError(err), func(e *gqlerrors.Error, _ int) Marker {
		m := Marker{Message: e.Message}
		if len(e.Locations) != 0 {
			m.Line = e.Locations[0].Line
			m.Column = e.Locations[0].Column
		}
		return m
	})
}
