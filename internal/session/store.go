package session

import "sync"

// TokenTriple is the set of bearer tokens issued by a successful code
// exchange. AccessToken and RefreshToken must both be present for the
// session to count as logged in; IDToken carries the subject identifier
// and is optional metadata.
type TokenTriple struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

func (t TokenTriple) IsLoggedIn() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// TokenStore wraps two Storage instances: a persistent one holding the
// token triple, and a volatile (tab-scoped) one holding the
// pending-exchange marker. All writes to the triple happen under a single
// lock so a concurrent Load never observes a torn save.
type TokenStore struct {
	mu         sync.Mutex
	persistent Storage
	volatile   Storage
}

func NewTokenStore(persistent Storage, volatile Storage) *TokenStore {
	return &TokenStore{
		persistent: persistent,
		volatile:   volatile,
	}
}

// Save writes all three tokens as a batch.
func (s *TokenStore) Save(triple TokenTriple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistent.Set(KeyIDToken, triple.IDToken)
	s.persistent.Set(KeyAccessToken, triple.AccessToken)
	s.persistent.Set(KeyRefreshToken, triple.RefreshToken)
}

// Load returns whatever subset of the triple is currently stored.
func (s *TokenStore) Load() TokenTriple {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TokenTriple{
		IDToken:      s.persistent.Get(KeyIDToken),
		AccessToken:  s.persistent.Get(KeyAccessToken),
		RefreshToken: s.persistent.Get(KeyRefreshToken),
	}
}

// UpdateAccessToken overwrites the access token (and the identity token,
// if the refresh response included one) after a successful refresh. The
// refresh token is left untouched.
func (s *TokenStore) UpdateAccessToken(accessToken string, idToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistent.Set(KeyAccessToken, accessToken)
	if idToken != "" {
		s.persistent.Set(KeyIDToken, idToken)
	}
}

// Clear removes all three tokens together.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistent.Delete(KeyIDToken)
	s.persistent.Delete(KeyAccessToken)
	s.persistent.Delete(KeyRefreshToken)
}

// BeginExchange atomically tests and sets the pending-exchange marker,
// returning false if an exchange is already in flight. Authorization codes
// are single-use at the identity provider, so two concurrent triggers must
// never both observe "not pending" and both start an exchange.
func (s *TokenStore) BeginExchange() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volatile.Get(KeyExchangeAttempted) == "true" {
		return false
	}
	s.volatile.Set(KeyExchangeAttempted, "true")
	return true
}

// FinishExchange clears the pending-exchange marker. It must be called on
// both the success and failure paths so a retry is possible after a
// failure, while a concurrent duplicate stays blocked during flight.
func (s *TokenStore) FinishExchange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volatile.Delete(KeyExchangeAttempted)
}

func (s *TokenStore) IsExchangePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volatile.Get(KeyExchangeAttempted) == "true"
}

// RetainPendingCode holds on to an authorization code for later reuse by
// the deferred onboarding submission.
func (s *TokenStore) RetainPendingCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volatile.Set(KeyPendingCode, code)
}

func (s *TokenStore) PendingCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volatile.Get(KeyPendingCode)
}

func (s *TokenStore) ClearPendingCode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volatile.Delete(KeyPendingCode)
}
