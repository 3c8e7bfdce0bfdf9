package introspection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/querypad/querypad/gqlerrors"
	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/requests"
)

// Introspect fetches the endpoint's schema via the standard introspection
// query and converts it into a *ast.Schema. The converted schema is printed
// back to SDL and reloaded through gqlparser so the result carries the same
// builtin types and positions a locally parsed schema would.
func Introspect(ctx context.Context, q queryer.Queryer) (*ast.Schema, error) {
	opName := QueryName
	res, err := q.Query(ctx, &requests.Request{
		Query:         introspectionQuery,
		OperationName: &opName,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data   *queryResult        `json:"data"`
		Errors gqlerrors.ErrorList `json:"errors"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return nil, fmt.Errorf("malformed introspection response: %w", err)
	}
	if len(envelope.Errors) != 0 {
		return nil, envelope.Errors
	}
	if envelope.Data == nil {
		return nil, errors.New("introspection response carried no data")
	}

	return buildSchema(q.URL(), envelope.Data.Schema)
}

func buildSchema(source string, remote *wireSchema) (*ast.Schema, error) {
	if remote == nil || remote.QueryType.Name == "" {
		return nil, errors.New("could not find the root query")
	}

	schema := &ast.Schema{
		Types:         map[string]*ast.Definition{},
		Directives:    map[string]*ast.DirectiveDefinition{},
		PossibleTypes: map[string][]*ast.Definition{},
		Implements:    map[string][]*ast.Definition{},
	}

	for _, remoteType := range remote.Types {
		def := convertType(remoteType)
		if def == nil {
			continue
		}

		if remoteType.Name == remote.QueryType.Name {
			schema.Query = def
		} else if remote.MutationType != nil && def.Name == remote.MutationType.Name {
			schema.Mutation = def
		} else if remote.SubscriptionType != nil && def.Name == remote.SubscriptionType.Name {
			schema.Subscription = def
		}

		schema.Types[def.Name] = def
		schema.AddImplements(remoteType.Name, def)
	}

	// second pass: union members and interface implementations need every
	// definition registered first
	for _, remoteType := range remote.Types {
		def := schema.Types[remoteType.Name]
		if def == nil {
			continue
		}

		for _, possible := range remoteType.PossibleTypes {
			if possible.Name == "" {
				return nil, errors.New("could not find possible type's name")
			}

			if remoteType.Name != def.Name {
				def.Types = append(def.Types, possible.Name)
			}

			possibleDef, ok := schema.Types[possible.Name]
			if !ok {
				return nil, fmt.Errorf("unknown possible type %q", possible.Name)
			}

			schema.AddPossibleType(remoteType.Name, possibleDef)
			schema.AddImplements(possible.Name, def)
		}

		for _, iface := range remoteType.Interfaces {
			if iface.Name == "" {
				return nil, errors.New("could not find interface's name")
			}

			def.Interfaces = append(def.Interfaces, iface.Name)

			ifaceDef, ok := schema.Types[iface.Name]
			if !ok {
				return nil, fmt.Errorf("unknown interface %q", iface.Name)
			}

			schema.AddPossibleType(ifaceDef.Name, def)
			schema.AddImplements(def.Name, ifaceDef)
		}

		if def.Kind == ast.Union && len(def.Types) == 0 {
			for _, possible := range schema.PossibleTypes[def.Name] {
				def.Types = append(def.Types, possible.Name)
			}
		}
	}

	for _, directive := range remote.Directives {
		switch directive.Name {
		case "":
			return nil, errors.New("could not find directive's name")
		case "skip", "deprecated", "include":
			// builtins, gqlparser adds them on load
			continue
		}

		var locations []ast.DirectiveLocation
		for _, value := range directive.Locations {
			locations = append(locations, ast.DirectiveLocation(value))
		}

		schema.Directives[directive.Name] = &ast.DirectiveDefinition{
			// without a position gqlparser refuses to format the definition
			Position:    &ast.Position{Src: &ast.Source{}},
			Name:        directive.Name,
			Description: directive.Description,
			Arguments:   convertArguments(directive.Args),
			Locations:   locations,
		}
	}

	buf := &bytes.Buffer{}
	formatter.NewFormatter(buf).FormatSchema(schema)

	loaded, perr := gqlparser.LoadSchema(&ast.Source{Name: source, Input: buf.String()})
	if perr != nil {
		return nil, perr
	}

	return loaded, nil
}

func convertType(remoteType wireType) *ast.Definition {
	switch remoteType.Name {
	// builtins, gqlparser adds them on load
	case "ID", "Int", "Float", "String", "Boolean",
		"__Schema", "__Type", "__InputValue", "__TypeKind",
		"__DirectiveLocation", "__Field", "__EnumValue", "__Directive":
		return nil
	}

	def := &ast.Definition{
		Name:        remoteType.Name,
		Description: remoteType.Description,
	}

	switch remoteType.Kind {
	case "OBJECT":
		def.Kind = ast.Object
	case "SCALAR":
		def.Kind = ast.Scalar
	case "INTERFACE":
		def.Kind = ast.Interface
	case "UNION":
		def.Kind = ast.Union
	case "INPUT_OBJECT":
		def.Kind = ast.InputObject
	case "ENUM":
		def.Kind = ast.Enum

		for _, value := range remoteType.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        value.Name,
				Description: value.Description,
			})
		}
	}

	var fields ast.FieldList

	for _, field := range remoteType.Fields {
		fields = append(fields, &ast.FieldDefinition{
			Name:        field.Name,
			Type:        convertTypeRef(&field.Type),
			Description: field.Description,
			Arguments:   convertArguments(field.Args),
		})
	}

	for _, field := range remoteType.InputFields {
		fields = append(fields, convertInputField(field))
	}

	def.Fields = fields

	return def
}

func convertInputField(field wireInputValue) *ast.FieldDefinition {
	fd := &ast.FieldDefinition{
		Name:        field.Name,
		Type:        convertTypeRef(&field.Type),
		Description: field.Description,
	}
	if field.DefaultValue == nil {
		return fd
	}

	fd.DefaultValue = convertDefaultValue(fd.Type, field.DefaultValue)
	return fd
}

func convertDefaultValue(typ *ast.Type, value any) *ast.Value {
	var kind ast.ValueKind
	switch typ.Name() {
	case "Int":
		kind = ast.IntValue
	case "Float":
		kind = ast.FloatValue
	case "Boolean":
		kind = ast.BooleanValue
	default:
		kind = ast.StringValue
	}

	if typ.Elem != nil {
		arr, ok := value.([]any)
		if !ok {
			return nil
		}

		var children ast.ChildValueList
		for _, el := range arr {
			raw, ok := rawValue(el, kind)
			if !ok {
				return nil
			}
			children = append(children, &ast.ChildValue{
				Value: &ast.Value{
					Position: &ast.Position{},
					Raw:      raw,
					Kind:     kind,
				},
			})
		}

		return &ast.Value{
			Position: &ast.Position{},
			Kind:     ast.ListValue,
			Children: children,
		}
	}

	raw, ok := rawValue(value, kind)
	if !ok {
		return nil
	}

	return &ast.Value{
		Position: &ast.Position{},
		Raw:      raw,
		Kind:     kind,
	}
}

func rawValue(value any, kind ast.ValueKind) (string, bool) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	if kind == ast.StringValue && len(b) > 2 {
		// drop the quotes json marshalling added
		b = b[1 : len(b)-1]
	}
	return string(b), true
}

func convertArguments(args []wireInputValue) ast.ArgumentDefinitionList {
	result := ast.ArgumentDefinitionList{}

	for _, argument := range args {
		result = append(result, &ast.ArgumentDefinition{
			Name:        argument.Name,
			Description: argument.Description,
			Type:        convertTypeRef(&argument.Type),
		})
	}

	return result
}

func convertTypeRef(ref *wireTypeRef) *ast.Type {
	if ref.Kind == "NON_NULL" && ref.OfType.Kind == "LIST" {
		return ast.NonNullListType(convertTypeRef(ref.OfType.OfType), &ast.Position{})
	}

	if ref.Kind == "LIST" {
		return ast.ListType(convertTypeRef(ref.OfType), &ast.Position{})
	}

	if ref.Kind == "NON_NULL" {
		return ast.NonNullNamedType(ref.OfType.Name, &ast.Position{})
	}

	return ast.NamedType(ref.Name, &ast.Position{})
}
