package profile

import (
	"context"

	"github.com/kamai-suraksha/frontend/internal/backend"
)

// Client reads and writes the caller's onboarding record via the backend's
// /userdata endpoint. Both operations require a valid bearer token
// obtained from the session manager.
type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// Fetch returns the caller's profile. A backend.ErrUnauthorized or
// backend.ErrNotFound on the first read after login means the user has no
// usable record yet.
func (c *Client) Fetch(ctx context.Context, accessToken string) (*Profile, error) {
	var res userDataResponse
	if err := c.api.Get(ctx, "/userdata", accessToken, &res); err != nil {
		return nil, err
	}
	return res.toProfile(), nil
}

// Save creates or updates the caller's profile.
func (c *Client) Save(ctx context.Context, accessToken string, p *Profile) error {
	return c.api.Send(ctx, "POST", "/userdata", accessToken, p.SavePayload(), nil)
}
