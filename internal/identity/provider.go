package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/kamai-suraksha/frontend/internal/session"
)

var ErrRefreshFailed = errors.New("failed to refresh access token")

// Config describes the hosted identity provider and the backend endpoint
// that performs the code exchange on our behalf.
type Config struct {
	// Domain is the provider's hosted UI domain, e.g.
	// "example.auth.eu-west-2.amazoncognito.com".
	Domain string
	// ClientId is the public app client ID; there is no client secret.
	ClientId string
	// RedirectUri is where the provider sends the user back with a code.
	RedirectUri string
	// LogoutUri is where the provider sends the user after clearing its
	// own session cookie.
	LogoutUri string
	// Scopes requested during the authorization redirect.
	Scopes []string
	// ExchangeUrl is the backend endpoint that converts a one-time
	// authorization code into a token triple.
	ExchangeUrl string
}

// Client is the identity-provider client used by the session manager and
// the handoff controller. It's an interface so tests can substitute a mock.
type Client interface {
	// AuthCodeURL returns the hosted-UI authorization URL for a redirect.
	AuthCodeURL(state string) string
	// LogoutURL returns the hosted-UI logout URL for a redirect.
	LogoutURL() string
	// Exchange converts an authorization code into a token triple via the
	// backend. extra optionally carries the filled onboarding form fields
	// for the deferred "finish onboarding" submission; the caller decides.
	Exchange(ctx context.Context, code string, extra map[string]string) (*session.TokenTriple, error)
	// Refresh implements session.TokenRefresher against the provider's
	// token endpoint.
	Refresh(ctx context.Context, refreshToken string) (accessToken string, idToken string, err error)
}

type client struct {
	config Config
	oauth  oauth2.Config
}

func NewClient(config Config) Client {
	return &client{
		config: config,
		oauth: oauth2.Config{
			ClientID: config.ClientId,
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("https://%s/oauth2/authorize", config.Domain),
				TokenURL: fmt.Sprintf("https://%s/oauth2/token", config.Domain),
			},
			RedirectURL: config.RedirectUri,
			Scopes:      config.Scopes,
		},
	}
}

func (c *client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *client) LogoutURL() string {
	params := url.Values{}
	params.Set("client_id", c.config.ClientId)
	params.Set("logout_uri", c.config.LogoutUri)
	return fmt.Sprintf("https://%s/logout?%s", c.config.Domain, params.Encode())
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if token.AccessToken == "" {
		return "", "", fmt.Errorf("%w: response carried no access token", ErrRefreshFailed)
	}
	idToken, _ := token.Extra("id_token").(string)
	return token.AccessToken, idToken, nil
}
