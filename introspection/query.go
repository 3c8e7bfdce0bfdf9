package introspection

import "fmt"

// QueryName is the operation name of the standard introspection query.
const QueryName = "IntrospectionQuery"

type queryResult struct {
	Schema *wireSchema `json:"__schema"`
}

type wireSchema struct {
	QueryType        wireRootType    `json:"queryType"`
	MutationType     *wireRootType   `json:"mutationType"`
	SubscriptionType *wireRootType   `json:"subscriptionType"`
	Types            []wireType      `json:"types"`
	Directives       []wireDirective `json:"directives"`
}

type wireRootType struct {
	Name string `json:"name"`
}

type wireType struct {
	Kind          string           `json:"kind"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	InputFields   []wireInputValue `json:"inputFields"`
	Interfaces    []wireTypeRef    `json:"interfaces"`
	PossibleTypes []wireTypeRef    `json:"possibleTypes"`
	Fields        []wireField      `json:"fields"`
	EnumValues    []wireEnumValue  `json:"enumValues"`
}

type wireField struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Args              []wireInputValue `json:"args"`
	Type              wireTypeRef      `json:"type"`
	IsDeprecated      bool             `json:"isDeprecated"`
	DeprecationReason string           `json:"deprecationReason"`
}

type wireEnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

type wireInputValue struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	DefaultValue any         `json:"defaultValue"`
	Type         wireTypeRef `json:"type"`
}

type wireDirective struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Locations   []string         `json:"locations"`
	Args        []wireInputValue `json:"args"`
}

type wireTypeRef struct {
	Kind   string       `json:"kind"`
	Name   string       `json:"name"`
	OfType *wireTypeRef `json:"ofType"`
}

var introspectionQuery = fmt.Sprintf(`
query %s {
	__schema {
		queryType { name }
		mutationType { name }
		subscriptionType { name }
		types {
			...FullType
		}
		directives {
			name
			description
			locations
			args {
				...InputValue
			}
		}
	}
}

fragment FullType on __Type {
	kind
	name
	description
	fields(includeDeprecated: true) {
		name
		description
		args {
			...InputValue
		}
		type {
			...TypeRef
		}
		isDeprecated
		deprecationReason
	}

	inputFields {
		...InputValue
	}

	interfaces {
		...TypeRef
	}

	enumValues(includeDeprecated: true) {
		name
		description
		isDeprecated
		deprecationReason
	}

	possibleTypes {
		...TypeRef
	}
}

fragment InputValue on __InputValue {
	name
	description
	type {
		...TypeRef
	}
	defaultValue
}

fragment TypeRef on __Type {
	kind
	name
	ofType {
		kind
		name
		ofType {
			kind
			name
			ofType {
				kind
				name
				ofType {
					kind
					name
					ofType {
						kind
						name
						ofType {
							kind
							name
							ofType {
								kind
								name
							}
						}
					}
				}
			}
		}
	}
}
`, QueryName)
