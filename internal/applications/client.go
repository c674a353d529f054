package applications

import (
	"context"

	"github.com/kamai-suraksha/frontend/internal/backend"
)

// Client wraps the backend's /loanapplication endpoint. Both operations
// require a valid bearer token obtained from the session manager.
type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// List returns the caller's application history.
func (c *Client) List(ctx context.Context, accessToken string) ([]Application, error) {
	var apps []Application
	if err := c.api.Get(ctx, "/loanapplication", accessToken, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Create submits a new application.
func (c *Client) Create(ctx context.Context, accessToken string, app Application) error {
	return c.api.Send(ctx, "POST", "/loanapplication", accessToken, app, nil)
}
