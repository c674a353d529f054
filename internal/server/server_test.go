package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/kamai-suraksha/frontend/internal/applications"
	"github.com/kamai-suraksha/frontend/internal/backend"
	"github.com/kamai-suraksha/frontend/internal/offers"
	"github.com/kamai-suraksha/frontend/internal/profile"
	"github.com/kamai-suraksha/frontend/internal/session"
)

type mockIdentity struct {
	triple      *session.TokenTriple
	exchangeErr error
}

func (m *mockIdentity) AuthCodeURL(state string) string {
	return "https://auth.example.com/oauth2/authorize?state=" + url.QueryEscape(state)
}

func (m *mockIdentity) LogoutURL() string {
	return "https://auth.example.com/logout"
}

func (m *mockIdentity) Exchange(ctx context.Context, code string, extra map[string]string) (*session.TokenTriple, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.triple, nil
}

func (m *mockIdentity) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return "", "", fmt.Errorf("mock error")
}

type mockProfiles struct {
	fetchProfile *profile.Profile
	fetchErr     error
	saveErr      error
}

func (m *mockProfiles) Fetch(ctx context.Context, accessToken string) (*profile.Profile, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.fetchProfile, nil
}

func (m *mockProfiles) Save(ctx context.Context, accessToken string, p *profile.Profile) error {
	return m.saveErr
}

type mockOffers struct {
	catalog   []offers.Offer
	createdId string
	updated   *offers.Offer
}

func (m *mockOffers) List(ctx context.Context) ([]offers.Offer, error) {
	return m.catalog, nil
}

func (m *mockOffers) Create(ctx context.Context, offer offers.Offer) (string, error) {
	return m.createdId, nil
}

func (m *mockOffers) Update(ctx context.Context, offer offers.Offer) error {
	m.updated = &offer
	return nil
}

type mockApplications struct {
	apps    []applications.Application
	listErr error
	created *applications.Application
}

func (m *mockApplications) List(ctx context.Context, accessToken string) ([]applications.Application, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.apps, nil
}

func (m *mockApplications) Create(ctx context.Context, accessToken string, app applications.Application) error {
	m.created = &app
	return nil
}

func validTriple(t *testing.T) *session.TokenTriple {
	claims := jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	assert.NoError(t, err)
	return &session.TokenTriple{IDToken: token, AccessToken: token, RefreshToken: "refresh-token-01"}
}

// testClient drives the server through ServeHTTP, carrying the session
// cookie between requests the way a browser tab would.
type testClient struct {
	t      *testing.T
	server *Server
	cookie *http.Cookie
}

func (c *testClient) do(method, target string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.server.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookieName {
			if cookie.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = &http.Cookie{Name: cookie.Name, Value: cookie.Value}
			}
		}
	}
	return rec
}

// signIn walks the login redirect and the provider callback, leaving the
// session authenticated (or wherever the mocks land it).
func (c *testClient) signIn(code string) *httptest.ResponseRecorder {
	rec := c.do(http.MethodGet, "/login", "")
	assert.Equal(c.t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("location"))
	assert.NoError(c.t, err)
	state := location.Query().Get("state")
	assert.NotEmpty(c.t, state)

	return c.do(http.MethodGet, fmt.Sprintf("/callback?code=%s&state=%s", code, state), "")
}

func newTestServer(identityClient *mockIdentity, profiles *mockProfiles, offerCatalog *mockOffers, applicationStore *mockApplications) *Server {
	if offerCatalog == nil {
		offerCatalog = &mockOffers{}
	}
	if applicationStore == nil {
		applicationStore = &mockApplications{}
	}
	return New(identityClient, profiles, offerCatalog, applicationStore)
}

func Test_Login_redirectsToHostedUi(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("location"), "https://auth.example.com/oauth2/authorize")
	assert.NotNil(t, c.cookie)
}

func Test_Callback_authenticatesReturningUser(t *testing.T) {
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao", ConfidenceScore: 78}},
		nil, nil,
	)
	c := &testClient{t: t, server: s}

	rec := c.signIn("code-01")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("location"))

	rec = c.do(http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"AUTHENTICATED"`)
	assert.Contains(t, rec.Body.String(), `"Asha Rao"`)
}

func Test_Callback_newUserLandsOnOnboarding(t *testing.T) {
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchErr: backend.ErrNotFound},
		nil, nil,
	)
	c := &testClient{t: t, server: s}

	rec := c.signIn("code-01")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get("location"))
}

func Test_Callback_rejectsMismatchedState(t *testing.T) {
	s := newTestServer(&mockIdentity{triple: validTriple(t)}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.do(http.MethodGet, "/callback?code=code-01&state=wrong", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("location"))
	assert.NoError(t, err)
	assert.Equal(t, "/", location.Path)
	assert.Contains(t, location.Query().Get("auth_error"), "state verification failed")
}

func Test_Callback_exchangeFailureRedirectsWithError(t *testing.T) {
	s := newTestServer(&mockIdentity{exchangeErr: fmt.Errorf("mock error")}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.signIn("code-01")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("location"))
	assert.NoError(t, err)
	assert.Equal(t, "/", location.Path)
	assert.Contains(t, location.Query().Get("auth_error"), "Authentication failed")
}

func Test_GetState_anonymousByDefault(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ANONYMOUS"`)
}

func Test_GetOffers_eligibleFilter(t *testing.T) {
	offerCatalog := &mockOffers{catalog: []offers.Offer{
		{Id: "offer-01", MinEligibilityScore: 40},
		{Id: "offer-02", MinEligibilityScore: 90},
	}}
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao", ConfidenceScore: 60}},
		offerCatalog, nil,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodGet, "/api/offers", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "offer-02")

	rec = c.do(http.MethodGet, "/api/offers?eligible=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "offer-01")
	assert.NotContains(t, rec.Body.String(), "offer-02")
}

func Test_PostOnboarding_validation(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodPost, "/api/onboarding", `{"phone_number": "9876543210"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "'full_name' is required")
}

func Test_PostOnboarding_withoutSessionIsUnauthorized(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodPost, "/api/onboarding", `{"full_name": "Asha Rao"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ANONYMOUS"`)
}

func Test_Applications_requireSession(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	rec := c.do(http.MethodGet, "/api/applications", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Applications_listAndCreate(t *testing.T) {
	applicationStore := &mockApplications{apps: []applications.Application{
		{NbfcPartner: "Starter Loan", Status: "Pending"},
	}}
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao"}},
		nil, applicationStore,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodGet, "/api/applications", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Starter Loan")

	rec = c.do(http.MethodPost, "/api/applications", `{"nbfc_partner": "Starter Loan", "loan_amount": "15000"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Pending", applicationStore.created.Status)
}

func Test_Applications_rejectedTokenForcesSignOut(t *testing.T) {
	applicationStore := &mockApplications{listErr: fmt.Errorf("list failed: %w", backend.ErrUnauthorized)}
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao"}},
		nil, applicationStore,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodGet, "/api/applications", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The rejected token tore the session down; the next page load starts
	// over anonymous.
	rec = c.do(http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ANONYMOUS"`)
}

func Test_AdminOffers_forbiddenForNonAdmins(t *testing.T) {
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao"}},
		nil, nil,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodPost, "/api/admin/offers", `{"title": "Starter Loan"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_AdminOffers_createAndUpdate(t *testing.T) {
	offerCatalog := &mockOffers{createdId: "offer-01"}
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao", Admin: true}},
		offerCatalog, nil,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodPost, "/api/admin/offers", `{"title": "Starter Loan", "minAmount": 5000}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"OfferID":"offer-01"`)

	rec = c.do(http.MethodPut, "/api/admin/offers", `{"title": "Starter Loan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, "/api/admin/offers", `{"id": "offer-01", "status": "Paused"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Paused", offerCatalog.updated.Status)
}

func Test_SessionRegistry_evictsIdleSessions(t *testing.T) {
	s := newTestServer(&mockIdentity{}, &mockProfiles{}, nil, nil)
	c := &testClient{t: t, server: s}

	// A cookie-less client mints a fresh session on every request; those
	// must not accumulate forever.
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	}
	c.do(http.MethodGet, "/api/state", "")

	s.sessionsMutex.Lock()
	assert.Len(t, s.sessions, 6)
	for _, sess := range s.sessions {
		if sess.id != c.cookie.Value {
			sess.lastSeen = time.Now().Add(-s.sessionTTL - time.Minute)
		}
	}
	s.lastSweep = time.Time{}
	s.sessionsMutex.Unlock()

	// The next request sweeps the idle sessions and keeps the live one.
	c.do(http.MethodGet, "/api/state", "")

	s.sessionsMutex.Lock()
	defer s.sessionsMutex.Unlock()
	assert.Len(t, s.sessions, 1)
	_, ok := s.sessions[c.cookie.Value]
	assert.True(t, ok)
}

func Test_Logout(t *testing.T) {
	s := newTestServer(
		&mockIdentity{triple: validTriple(t)},
		&mockProfiles{fetchProfile: &profile.Profile{WorkerId: "worker-01", FullName: "Asha Rao"}},
		nil, nil,
	)
	c := &testClient{t: t, server: s}
	c.signIn("code-01")

	rec := c.do(http.MethodGet, "/logout", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://auth.example.com/logout", rec.Header().Get("location"))
	assert.Nil(t, c.cookie)

	rec = c.do(http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"ANONYMOUS"`)
}
