package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kamai-suraksha/frontend/internal/session"
)

var ErrExchangeFailed = errors.New("failed to exchange authorization code")

type exchangeResponse struct {
	IdToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Exchange POSTs the one-time authorization code to the backend exchange
// endpoint. This is the one unauthenticated entry point that converts a
// code into a token triple, so the request carries no bearer token. When
// extra is non-nil its fields ride along in the same request body, which
// is how a deferred onboarding submission saves the form in the same call.
func (c *client) Exchange(ctx context.Context, code string, extra map[string]string) (*session.TokenTriple, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code provided", ErrExchangeFailed)
	}

	body := map[string]string{
		"code":         code,
		"redirect_uri": c.config.RedirectUri,
		"client_id":    c.config.ClientId,
	}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ExchangeUrl, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	req.Header.Set("content-type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: got %d response: %s", ErrExchangeFailed, res.StatusCode, string(b))
	}

	var tokens exchangeResponse
	if err := json.NewDecoder(res.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, fmt.Errorf("%w: response was missing tokens", ErrExchangeFailed)
	}

	// The subject identifier in the ID token is how the rest of the flow
	// knows which user just signed in; a response we can't read a subject
	// from counts as a failed exchange.
	claims := session.DecodeClaims(tokens.IdToken)
	if claims == nil || claims.SubjectID() == "" {
		return nil, fmt.Errorf("%w: could not read a subject identifier from the id token", ErrExchangeFailed)
	}

	return &session.TokenTriple{
		IDToken:      tokens.IdToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}
