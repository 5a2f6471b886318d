// Package graphql provides a minimal GraphQL-over-HTTP client. It posts
// queries as JSON, decodes the standard {data, errors} response envelope,
// and surfaces server-side errors through a sentinel error. Static headers
// (for example API keys) can be attached to every request.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrServerReturnedError indicates that the GraphQL server answered the
// request but reported one or more errors in the response body.
var ErrServerReturnedError = errors.New("graphql server error")

// response represents the standard GraphQL response envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Err returns an error built from the response's errors list, or nil when
// the list is empty. All messages are joined into a single wrapped error.
func (r response) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = e.Message
	}

	return fmt.Errorf("%w: %s", ErrServerReturnedError, strings.Join(messages, "; "))
}

// Client defines the interface for executing GraphQL operations. It exists
// so callers can be tested against a fake transport.
type Client interface {
	// Query executes the given GraphQL document with optional variables and
	// returns the raw "data" payload, or an error if the request or the
	// server fails.
	Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// client is the default Client implementation. It sends requests to a fixed
// endpoint using the provided HTTP client and attaches the configured
// headers to every request.
type client struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
}

// Compile-time assertion that client implements the Client interface.
var _ Client = (*client)(nil)

// Query sends the GraphQL document to the configured endpoint and returns
// the raw data payload from the response envelope.
func (c *client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrServerReturnedError, res.StatusCode)
	}

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Data, data.Err()
}

// NewClient constructs a Client that sends GraphQL requests to endpoint
// using the given HTTP client. The headers map is attached to every request
// and may be nil.
func NewClient(httpClient *http.Client, endpoint string, headers map[string]string) *client {
	return &client{
		endpoint:   endpoint,
		headers:    headers,
		httpClient: httpClient,
	}
}
