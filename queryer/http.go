package queryer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/querypad/querypad/requests"
)

// TransportConfig is the process-wide endpoint configuration, built once by
// the composition root and injected here. Nothing reads ambient globals.
type TransportConfig struct {
	URL string

	// Headers is the static header set attached to every request,
	// e.g. Authorization.
	Headers map[string]string

	// PerformanceHeader names the response header carrying the server-side
	// timing breakdown. Empty disables capture.
	PerformanceHeader string
}

// RequestMiddleware functions can be passed to a queryer to mutate outgoing
// requests, e.g. to attach short-lived credentials.
type RequestMiddleware func(*http.Request) error

// HTTPQueryer sends single GraphQL operations to one endpoint over HTTP.
type HTTPQueryer struct {
	cfg     TransportConfig
	client  *http.Client
	mdwares []RequestMiddleware
}

var _ Queryer = &HTTPQueryer{}

// NewHTTPQueryer returns an HTTPQueryer for the provided transport config.
func NewHTTPQueryer(cfg TransportConfig) *HTTPQueryer {
	return &HTTPQueryer{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// WithMiddlewares lets the user assign middlewares to the queryer
func (q *HTTPQueryer) WithMiddlewares(mwares []RequestMiddleware) *HTTPQueryer {
	q.mdwares = mwares
	return q
}

// WithHTTPClient lets the user configure the client to use when making network requests
func (q *HTTPQueryer) WithHTTPClient(client *http.Client) *HTTPQueryer {
	q.client = client
	return q
}

func (q *HTTPQueryer) URL() string {
	return q.cfg.URL
}

// Query posts the request body to the endpoint and returns the raw response
// body along with the captured performance header. The body is returned even
// on a non-2xx status so callers can still show what the server said.
func (q *HTTPQueryer) Query(ctx context.Context, req *requests.Request) (*Result, error) {
	payload, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, q.cfg.URL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}

	for key, value := range q.cfg.Headers {
		request.Header.Set(key, value)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	for _, mdware := range q.mdwares {
		if err := mdware(request); err != nil {
			return nil, err
		}
	}

	if q.client == nil {
		q.client = &http.Client{}
	}

	resp, err := q.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	result := &Result{Body: body}
	if q.cfg.PerformanceHeader != "" {
		result.Performance = resp.Header.Get(q.cfg.PerformanceHeader)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("response was not successful with status code: %d", resp.StatusCode)
	}

	return result, nil
}
