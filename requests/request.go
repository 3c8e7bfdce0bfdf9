package requests

import (
	"encoding/json"

	"github.com/querypad/querypad/gqlerrors"
)

// Request is the GraphQL request body sent over HTTP or graphql-ws.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName *string        `json:"operationName,omitempty"`
}

// Response is the GraphQL response envelope.
type Response struct {
	Errors gqlerrors.ErrorList `json:"errors"`
	Data   map[string]any      `json:"data"`
}

// Marshal encodes the request the way the endpoint expects it: a single
// JSON object, never a batch.
func (r *Request) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
