// Package format pretty-prints GraphQL query text for the console's
// reformat action.
package format

import (
	"bytes"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// Document parses the query text and re-prints it with two-space
// indentation. Invalid text returns an error so callers can leave the
// buffer untouched.
func Document(text string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: text})
	if err != nil {
		return "", err
	}

	buf := &bytes.Buffer{}
	formatter.NewFormatter(buf, formatter.WithIndent("  ")).FormatQueryDocument(doc)

	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}
