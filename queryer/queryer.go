package queryer

import (
	"context"

	"github.com/querypad/querypad/requests"
)

// Result carries the raw outcome of a single query execution. Body is the
// unprocessed response body: the console renders exactly what the server
// sent, it never normalizes records. Performance holds the verbatim value of
// the configured performance header ("key:value; key:value; ..."), empty when
// the server sent none. Splitting it into lines is a rendering concern.
type Result struct {
	Body        []byte
	Performance string
}

// Queryer executes GraphQL operations against a single endpoint.
type Queryer interface {
	Query(ctx context.Context, req *requests.Request) (*Result, error)
	Subscribe(ctx context.Context, req *requests.Request, closeCh <-chan struct{}, resCh chan *requests.Response) error
	URL() string
}
