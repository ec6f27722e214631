// Package remote talks to the store's catalog and account web APIs.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized is returned when the API rejects the credential.
var ErrUnauthorized = errors.New("remote api: unauthorized")

// apiClient is the JSON transport shared by the catalog and account clients.
// Every call waits on the limiter and runs through the breaker.
type apiClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	name    string
}

func newAPIClient(name string, baseURL string, requestsPerSecond float64, httpClient *http.Client) (*apiClient, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url is required", name)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", name, err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &apiClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker(name),
		name:    name,
	}, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	header map[string]string
	body   any
}

// call performs req under the breaker and decodes the response into a new T.
func call[T any](ctx context.Context, c *apiClient, req request) (T, error) {
	result, err := c.execute(func() (any, error) {
		var out T
		if err := c.roundTrip(ctx, req, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return castResult[T](result, req.path)
}

func (c *apiClient) roundTrip(ctx context.Context, req request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", req.path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for key, value := range req.header {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", req.path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", req.path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.path, err)
	}

	return nil
}
