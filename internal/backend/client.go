package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnauthorized indicates a 401 or 403 from a backend endpoint. Callers
// treat it as "session invalid": any authenticated flow that sees it must
// trigger sign-out so stale tokens never linger.
var ErrUnauthorized = errors.New("backend rejected the access token")

// ErrNotFound indicates a 404; on the first profile read after login it
// means the user has no record yet.
var ErrNotFound = errors.New("backend returned 404")

// StatusError captures any other non-2xx response, retaining the raw
// status and body for user-visible alerts.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("got %d response from backend: %s", e.StatusCode, e.Body)
}

// Client issues JSON requests against the backend API gateway. It applies
// no retries or backoff of its own; failures surface to the caller as
// classified errors.
type Client struct {
	baseUrl string
	http    *http.Client
}

func NewClient(baseUrl string) *Client {
	return &Client{
		baseUrl: baseUrl,
		http:    http.DefaultClient,
	}
}

// Get issues a GET request, decoding the response into out. accessToken
// may be "" for unauthenticated endpoints.
func (c *Client) Get(ctx context.Context, path string, accessToken string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, accessToken, nil, out)
}

// Send issues a request carrying a JSON body. out may be nil when the
// caller doesn't need the response payload.
func (c *Client) Send(ctx context.Context, method string, path string, accessToken string, body interface{}, out interface{}) error {
	return c.do(ctx, method, path, accessToken, body, out)
}

func (c *Client) do(ctx context.Context, method string, path string, accessToken string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return fmt.Errorf("failed to prepare request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	if accessToken != "" {
		req.Header.Set("authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	res, err := c.http.Do(req)
	if err != nil {
		// Connectivity failure, distinct from any auth failure.
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, res.StatusCode)
	}
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(res.Body)
		return &StatusError{StatusCode: res.StatusCode, Body: string(b)}
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
