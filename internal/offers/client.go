package offers

import (
	"context"
	"fmt"

	"github.com/kamai-suraksha/frontend/internal/backend"
)

// Client wraps the backend's /loanoffers endpoint. Reads are public; the
// create/update operations back the admin and partner consoles.
type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// List fetches the full offer catalog. No auth header is sent; the catalog
// is public.
func (c *Client) List(ctx context.Context) ([]Offer, error) {
	var catalog []Offer
	if err := c.api.Get(ctx, "/loanoffers", "", &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

type createOfferResponse struct {
	OfferId string `json:"OfferID"`
}

// Create adds a new offer to the catalog, defaulting its status to Active,
// and returns the server-assigned offer ID.
func (c *Client) Create(ctx context.Context, offer Offer) (string, error) {
	if offer.Status == "" {
		offer.Status = "Active"
	}
	var res createOfferResponse
	if err := c.api.Send(ctx, "POST", "/loanoffers", "", offer, &res); err != nil {
		return "", err
	}
	if res.OfferId == "" {
		return "", fmt.Errorf("create offer response carried no OfferID")
	}
	return res.OfferId, nil
}

// Update overwrites an existing offer.
func (c *Client) Update(ctx context.Context, offer Offer) error {
	return c.api.Send(ctx, "PUT", "/loanoffers", "", offer, nil)
}
