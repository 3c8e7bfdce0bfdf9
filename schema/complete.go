package schema

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/ast"
)

// SuggestionKind classifies what a suggestion would insert.
type SuggestionKind int

const (
	SuggestField SuggestionKind = iota
	SuggestArgument
	SuggestDirective
	SuggestValue
	SuggestKeyword
)

// Suggestion is a single autocomplete candidate for the token at the cursor.
type Suggestion struct {
	Label  string
	Detail string
	Kind   SuggestionKind
}

// CurrentToken returns the start offset and content of the identifier the
// cursor sits at the end of. A leading "@" belongs to the token so directive
// completions replace it as one unit.
func CurrentToken(text string, offset int) (int, string) {
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	if start > 0 && text[start-1] == '@' {
		start--
	}
	return start, text[start:offset]
}

// Complete returns schema-driven suggestions for the cursor position,
// filtered by the token the cursor is completing. A nil schema yields nil:
// autocomplete silently degrades when the schema never loaded.
func Complete(s *ast.Schema, text string, offset int) []Suggestion {
	if s == nil {
		return nil
	}
	if offset > len(text) {
		offset = len(text)
	}

	_, token := CurrentToken(text, offset)
	sc := scan(text[:offset-len(token)])

	var out []Suggestion
	switch {
	case strings.HasPrefix(token, "@") || sc.afterAt:
		out = directiveSuggestions(s)
	case len(sc.parens) != 0 && sc.afterColon:
		out = valueSuggestions(s, sc)
	case len(sc.parens) != 0:
		out = argumentSuggestions(s, sc)
	case len(sc.braces) == 0:
		out = keywordSuggestions()
	default:
		out = fieldSuggestions(s, sc)
	}

	needle := strings.ToLower(strings.TrimPrefix(token, "@"))
	out = lo.Filter(out, func(sug Suggestion, _ int) bool {
		return strings.HasPrefix(strings.ToLower(sug.Label), needle)
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func directiveSuggestions(s *ast.Schema) []Suggestion {
	var out []Suggestion
	for name, def := range s.Directives {
		out = append(out, Suggestion{Label: name, Detail: def.Description, Kind: SuggestDirective})
	}
	return out
}

func keywordSuggestions() []Suggestion {
	return lo.Map([]string{"query", "mutation", "subscription", "fragment"}, func(kw string, _ int) Suggestion {
		return Suggestion{Label: kw, Kind: SuggestKeyword}
	})
}

func fieldSuggestions(s *ast.Schema, sc *scanState) []Suggestion {
	def := resolveEnclosing(s, sc)
	if def == nil {
		return nil
	}

	var out []Suggestion
	for _, fd := range def.Fields {
		if strings.HasPrefix(fd.Name, "__") {
			continue
		}
		out = append(out, Suggestion{Label: fd.Name, Detail: fd.Type.String(), Kind: SuggestField})
	}
	out = append(out, Suggestion{Label: "__typename", Detail: "String!", Kind: SuggestField})
	return out
}

func argumentSuggestions(s *ast.Schema, sc *scanState) []Suggestion {
	fd := resolveArgumentField(s, sc)
	if fd == nil {
		return nil
	}

	return lo.Map(fd.Arguments, func(arg *ast.ArgumentDefinition, _ int) Suggestion {
		return Suggestion{Label: arg.Name, Detail: arg.Type.String(), Kind: SuggestArgument}
	})
}

func valueSuggestions(s *ast.Schema, sc *scanState) []Suggestion {
	fd := resolveArgumentField(s, sc)
	if fd == nil {
		return nil
	}
	arg := fd.Arguments.ForName(sc.colonArg)
	if arg == nil {
		return nil
	}

	switch argType := s.Types[arg.Type.Name()]; {
	case argType != nil && argType.Kind == ast.Enum:
		return lo.Map(argType.EnumValues, func(ev *ast.EnumValueDefinition, _ int) Suggestion {
			return Suggestion{Label: ev.Name, Detail: argType.Name, Kind: SuggestValue}
		})
	case arg.Type.Name() == "Boolean":
		return []Suggestion{
			{Label: "false", Detail: "Boolean", Kind: SuggestValue},
			{Label: "true", Detail: "Boolean", Kind: SuggestValue},
		}
	default:
		return nil
	}
}

// resolveEnclosing walks the brace stack from the root operation type down
// to the type whose selection set holds the cursor.
func resolveEnclosing(s *ast.Schema, sc *scanState) *ast.Definition {
	var def *ast.Definition
	for _, fr := range sc.braces {
		switch {
		case fr.opaque:
			// inside an input object literal, nothing sensible to offer
			return nil
		case fr.typeCond != "":
			def = s.Types[fr.typeCond]
		case fr.root != "":
			def = rootType(s, fr.root)
		case fr.field == "":
			// inline fragment without a condition inherits the parent type
		default:
			if def == nil {
				return nil
			}
			fd := def.Fields.ForName(fr.field)
			if fd == nil {
				return nil
			}
			def = s.Types[fd.Type.Name()]
		}
		if def == nil {
			return nil
		}
	}
	return def
}

func resolveArgumentField(s *ast.Schema, sc *scanState) *ast.FieldDefinition {
	def := resolveEnclosing(s, sc)
	if def == nil || len(sc.parens) == 0 {
		return nil
	}
	return def.Fields.ForName(sc.parens[len(sc.parens)-1].field)
}

func rootType(s *ast.Schema, op string) *ast.Definition {
	switch op {
	case "mutation":
		return s.Mutation
	case "subscription":
		return s.Subscription
	default:
		return s.Query
	}
}

type braceFrame struct {
	field    string
	typeCond string
	root     string
	opaque   bool
}

type parenFrame struct {
	field string
}

type scanState struct {
	braces []braceFrame
	parens []parenFrame

	ident1    string // most recent complete identifier
	ident2    string // the one before it
	lastField string // last identifier that can name a field
	colonArg  string // identifier preceding the most recent ":" in arguments

	opKeyword  string
	afterAt    bool
	afterColon bool
}

// scan runs a lightweight pass over the text before the completed token,
// tracking just enough structure to resolve the cursor's schema context.
// Strings and comments are skipped; full parsing is deliberately avoided
// because the buffer is usually mid-edit and invalid.
func scan(text string) *scanState {
	sc := &scanState{}

	var ident []byte
	var inString, inComment bool

	flush := func() {
		if len(ident) == 0 {
			return
		}
		word := string(ident)
		ident = ident[:0]

		sc.ident2, sc.ident1 = sc.ident1, word
		sc.afterColon = false

		switch {
		case sc.afterAt:
			sc.afterAt = false
		case len(sc.parens) != 0:
			// argument names only matter for the colon context
		case len(sc.braces) == 0 && isOperationKeyword(word):
			sc.opKeyword = word
		case word == "on" || word == "fragment":
		case sc.ident2 == "on":
		default:
			sc.lastField = word
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inComment {
			if c == '\n' {
				inComment = false
			}
			continue
		}
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if isIdentByte(c) {
			ident = append(ident, c)
			continue
		}
		flush()

		switch c {
		case '"':
			inString = true
		case '#':
			inComment = true
		case '@':
			sc.afterAt = true
		case ':':
			if len(sc.parens) != 0 {
				sc.colonArg = sc.ident1
			}
			sc.afterColon = true
		case '{':
			fr := braceFrame{}
			switch {
			case len(sc.parens) != 0 || sc.afterColon:
				fr.opaque = true
			case sc.ident2 == "on":
				// inline fragment or fragment definition condition
				fr.typeCond = sc.ident1
			case len(sc.braces) == 0:
				fr.root = "query"
				if sc.opKeyword == "mutation" || sc.opKeyword == "subscription" {
					fr.root = sc.opKeyword
				}
			default:
				fr.field = sc.lastField
			}
			sc.braces = append(sc.braces, fr)
			sc.lastField = ""
			sc.afterColon = false
		case '}':
			if len(sc.braces) != 0 {
				sc.braces = sc.braces[:len(sc.braces)-1]
			}
			sc.lastField = ""
		case '(':
			sc.parens = append(sc.parens, parenFrame{field: sc.lastField})
			sc.afterColon = false
		case ')':
			if len(sc.parens) != 0 {
				// the field keeps its selection set after the arguments close
				sc.lastField = sc.parens[len(sc.parens)-1].field
				sc.parens = sc.parens[:len(sc.parens)-1]
			}
			sc.afterColon = false
		case ' ', '\t', '\n', '\r', ',':
		default:
			sc.afterColon = false
		}
	}
	flush()

	return sc
}

func isOperationKeyword(word string) bool {
	switch word {
	case "query", "mutation", "subscription":
		return true
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
