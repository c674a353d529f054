package session

import (
	"context"
	"time"
)

// TokenRefresher exchanges a refresh token for a new access token at the
// identity provider. The identity token is "" when the provider didn't
// return one.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, idToken string, err error)
}

// Manager owns the decision "is the current access token usable, and if
// not, can it be refreshed". It is the single choke point every
// authenticated call must pass through: no caller may read raw tokens from
// the TokenStore directly for request construction.
type Manager struct {
	store     *TokenStore
	refresher TokenRefresher
	skew      time.Duration
}

func NewManager(store *TokenStore, refresher TokenRefresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		skew:      DefaultExpirySkew,
	}
}

// GetValidAccessToken returns a usable access token, refreshing it first
// if it has expired. It returns "" when no usable token can be produced;
// callers must treat that as "re-authentication required", not as an
// exceptional condition. Refresh failures are never retried here.
func (m *Manager) GetValidAccessToken(ctx context.Context) string {
	triple := m.store.Load()
	if triple.AccessToken == "" {
		// Nothing to refresh toward without ever having logged in.
		return ""
	}

	if !IsExpired(triple.AccessToken, m.skew) {
		return triple.AccessToken
	}

	if triple.RefreshToken == "" {
		return ""
	}
	accessToken, idToken, err := m.refresher.Refresh(ctx, triple.RefreshToken)
	if err != nil {
		return ""
	}
	m.store.UpdateAccessToken(accessToken, idToken)
	return accessToken
}

// Store exposes the underlying token store for lifecycle operations
// (save on exchange, clear on sign-out); token reads for request
// construction must still go through GetValidAccessToken.
func (m *Manager) Store() *TokenStore {
	return m.store
}
