package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/kamai-suraksha/frontend/internal/applications"
	"github.com/kamai-suraksha/frontend/internal/backend"
	"github.com/kamai-suraksha/frontend/internal/identity"
	"github.com/kamai-suraksha/frontend/internal/profile"
	"github.com/kamai-suraksha/frontend/internal/session"
)

// State is the single enumerated value describing where the
// authentication handoff currently stands. Keeping it as one value (rather
// than a scatter of booleans) makes illegal combinations unrepresentable.
type State string

const (
	StateAnonymous          State = "ANONYMOUS"
	StateExchanging         State = "EXCHANGING"
	StateCheckingProfile    State = "CHECKING_PROFILE"
	StateAuthenticated      State = "AUTHENTICATED"
	StateOnboardingRequired State = "ONBOARDING_REQUIRED"
	StateError              State = "ERROR"
)

// Snapshot is the derived, in-memory session state. It is never persisted;
// it's rebuilt on every page load from stored tokens plus a profile fetch.
type Snapshot struct {
	LoggedIn        bool                       `json:"loggedIn"`
	Admin           bool                       `json:"admin"`
	ConfidenceScore int                        `json:"confidenceScore"`
	Profile         *profile.Profile           `json:"profile,omitempty"`
	Applications    []applications.Application `json:"applications,omitempty"`
}

// Result is what a handoff entry point hands back to the HTTP layer: the
// state we landed in, where to send the user, and a user-visible error
// message if something went wrong. Raw network errors never escape past
// here.
type Result struct {
	State        State
	NavigateTo   string
	ErrorMessage string
}

// ProfileClient is the subset of the profile gateway the controller needs.
type ProfileClient interface {
	Fetch(ctx context.Context, accessToken string) (*profile.Profile, error)
	Save(ctx context.Context, accessToken string, p *profile.Profile) error
}

// Controller drives the authentication handoff: it detects an inbound
// authorization code, performs an at-most-once code exchange, decides
// whether the user is new or returning, and tells the caller where to
// navigate. Page-load effects can fire more than once concurrently, so
// every transition that performs a network call is guarded: the exchange
// by the token store's pending marker, the profile read by a
// once-per-session flag.
type Controller struct {
	store    *session.TokenStore
	manager  *session.Manager
	identity identity.Client
	profiles ProfileClient

	mu             sync.Mutex
	state          State
	snapshot       Snapshot
	errText        string
	profileChecked bool
	// generation increments on sign-out so that an in-flight exchange or
	// profile check completing afterwards can tell its result is stale and
	// must not resurrect the session.
	generation int
}

func New(store *session.TokenStore, manager *session.Manager, identityClient identity.Client, profiles ProfileClient) *Controller {
	return &Controller{
		store:    store,
		manager:  manager,
		identity: identityClient,
		profiles: profiles,
		state:    StateAnonymous,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// SetApplications caches the user's application history in the derived
// snapshot after the HTTP layer has fetched it.
func (c *Controller) SetApplications(apps []applications.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Applications = apps
}

// Resume handles a page (re)load with no authorization code in play: if
// stored tokens are usable the profile check runs (once per session) and
// the user lands on the dashboard or the onboarding form; otherwise the
// user stays anonymous and no network call is made.
func (c *Controller) Resume(ctx context.Context) Result {
	c.mu.Lock()
	if c.profileChecked {
		defer c.mu.Unlock()
		return c.resultLocked()
	}
	gen := c.generation
	c.mu.Unlock()

	accessToken := c.manager.GetValidAccessToken(ctx)
	if accessToken == "" {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = StateAnonymous
		c.snapshot = Snapshot{}
		// A banner left over from a failed flow surfaces on this load
		// only, not on every anonymous load after it.
		result := c.resultLocked()
		c.errText = ""
		return result
	}

	c.mu.Lock()
	c.state = StateCheckingProfile
	c.mu.Unlock()
	return c.checkProfile(ctx, gen, accessToken, "")
}

// HandleCallback handles the redirect back from the hosted login page. The
// HTTP layer answers it with a redirect, so the one-time code never stays
// in a user-visible URL where a refresh could replay it; on top of that,
// the pending-exchange marker guarantees at most one exchange per code
// even when the callback fires twice concurrently.
func (c *Controller) HandleCallback(ctx context.Context, query url.Values) Result {
	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = errParam
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = StateAnonymous
		c.errText = fmt.Sprintf("Login failed: %s", desc)
		return c.resultLocked()
	}

	code := query.Get("code")
	if code == "" {
		// Direct navigation to the callback URL; nothing to exchange.
		return c.Resume(ctx)
	}

	// A session that already holds usable tokens doesn't exchange again; a
	// replayed callback after a successful login lands on the dashboard.
	if c.store.Load().IsLoggedIn() {
		return c.Resume(ctx)
	}

	// A fresh code supersedes any stale pending state from an abandoned
	// earlier flow.
	c.store.ClearPendingCode()
	if !c.store.BeginExchange() {
		// A duplicate trigger while an exchange is in flight.
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.resultLocked()
	}

	c.mu.Lock()
	gen := c.generation
	c.state = StateExchanging
	c.mu.Unlock()

	triple, err := c.identity.Exchange(ctx, code, nil)

	if err != nil {
		// Force sign-out semantics so the user can retry cleanly.
		c.store.FinishExchange()
		c.store.Clear()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = StateError
		c.snapshot = Snapshot{}
		c.errText = fmt.Sprintf("Authentication failed: %v", err)
		return c.resultLocked()
	}

	c.mu.Lock()
	if gen != c.generation {
		// The user signed out while the exchange was in flight; applying
		// this result would resurrect a session they just terminated.
		defer c.mu.Unlock()
		return c.resultLocked()
	}
	c.state = StateCheckingProfile
	// The save stays inside the generation-checked section so a sign-out
	// landing between the check and the write can't have its cleared store
	// repopulated. Tokens land before the marker clears, so a duplicate
	// trigger that slips past the marker still sees a logged-in session.
	c.store.Save(*triple)
	c.store.FinishExchange()
	c.mu.Unlock()

	return c.checkProfile(ctx, gen, triple.AccessToken, code)
}

// checkProfile classifies the freshly-authenticated user as returning
// (profile exists with a real name) or new (no profile, or only the
// placeholder record), and lands in the matching state. The exchange that
// produced accessToken has already completed; the two calls are sequenced,
// never concurrent.
func (c *Controller) checkProfile(ctx context.Context, gen int, accessToken string, pendingCode string) Result {
	p, err := c.profiles.Fetch(ctx, accessToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return c.resultLocked()
	}

	switch {
	case err == nil && p.OnboardingComplete():
		c.state = StateAuthenticated
		c.profileChecked = true
		c.errText = ""
		c.snapshot = Snapshot{
			LoggedIn:        true,
			Admin:           p.Admin,
			ConfidenceScore: p.ConfidenceScore,
			Profile:         p,
		}

	case err == nil, errors.Is(err, backend.ErrUnauthorized), errors.Is(err, backend.ErrNotFound):
		// No record, an empty/placeholder record, or an auth error on this
		// first read: the user authenticated but hasn't onboarded.
		c.state = StateOnboardingRequired
		c.profileChecked = true
		c.errText = ""
		c.snapshot = Snapshot{LoggedIn: true}
		if err == nil {
			c.snapshot.Admin = p.Admin
			c.snapshot.ConfidenceScore = p.ConfidenceScore
			c.snapshot.Profile = p
		}
		if pendingCode != "" {
			// Retained for the deferred onboarding submission.
			c.store.RetainPendingCode(pendingCode)
		}

	default:
		// Network or server failure: don't claim authentication.
		c.state = StateAnonymous
		c.errText = fmt.Sprintf("Could not load your profile: %v", err)
	}
	return c.resultLocked()
}

// CompleteOnboarding handles the onboarding form submission. A new user
// who deferred profile entry still holds a pending authorization code, and
// their exchange carries the form fields; a returning user updates their
// profile with an ordinary authenticated write.
func (c *Controller) CompleteOnboarding(ctx context.Context, p *profile.Profile) Result {
	if code := c.store.PendingCode(); code != "" {
		return c.completeDeferredExchange(ctx, code, p)
	}

	accessToken := c.manager.GetValidAccessToken(ctx)
	if accessToken == "" {
		c.signOutState()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.errText = "Session expired. Please log in again to update your details."
		return c.resultLocked()
	}

	err := c.profiles.Save(ctx, accessToken, p)
	if errors.Is(err, backend.ErrUnauthorized) {
		c.signOutState()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.errText = "Session expired. Please log in again to update your details."
		return c.resultLocked()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// The write failed but the session is still good; the user stays
		// on the form and sees the raw status for debuggability.
		c.errText = fmt.Sprintf("Failed to update your details: %v", err)
		return c.resultLocked()
	}
	c.state = StateAuthenticated
	c.profileChecked = false
	c.errText = ""
	c.snapshot = Snapshot{
		LoggedIn:        true,
		Admin:           p.Admin,
		ConfidenceScore: p.ConfidenceScore,
		Profile:         p,
	}
	return c.resultLocked()
}

func (c *Controller) completeDeferredExchange(ctx context.Context, code string, p *profile.Profile) Result {
	if !c.store.BeginExchange() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.resultLocked()
	}

	c.mu.Lock()
	gen := c.generation
	c.state = StateExchanging
	c.mu.Unlock()

	triple, err := c.identity.Exchange(ctx, code, p.ExchangePayload())

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return c.resultLocked()
	}
	if err != nil {
		// The pending code stays retained and the marker clears, so the
		// user can fix their details and resubmit.
		c.store.FinishExchange()
		c.state = StateOnboardingRequired
		c.errText = fmt.Sprintf("Failed to save your details: %v", err)
		return c.resultLocked()
	}

	c.store.ClearPendingCode()
	c.store.Save(*triple)
	c.store.FinishExchange()
	c.state = StateAuthenticated
	c.profileChecked = false
	c.errText = ""
	c.snapshot = Snapshot{
		LoggedIn:        true,
		Admin:           p.Admin,
		ConfidenceScore: p.ConfidenceScore,
		Profile:         p,
	}
	return c.resultLocked()
}

// SignOut clears the token triple, the pending-exchange state and the
// derived snapshot, from any state, and returns the identity provider's
// logout URL so the caller can redirect the browser there to invalidate
// the provider's own session cookie as well.
func (c *Controller) SignOut() string {
	c.signOutState()
	return c.identity.LogoutURL()
}

func (c *Controller) signOutState() {
	c.mu.Lock()
	c.generation++
	c.state = StateAnonymous
	c.snapshot = Snapshot{}
	c.errText = ""
	c.profileChecked = false
	c.mu.Unlock()

	c.store.Clear()
	c.store.ClearPendingCode()
	c.store.FinishExchange()
}

// ErrorMessage returns the current user-visible error banner text, if any.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errText
}

func (c *Controller) resultLocked() Result {
	return Result{
		State:        c.state,
		NavigateTo:   c.navigateToLocked(),
		ErrorMessage: c.errText,
	}
}

func (c *Controller) navigateToLocked() string {
	switch c.state {
	case StateAuthenticated:
		return "/dashboard"
	case StateOnboardingRequired:
		return "/onboarding"
	case StateExchanging, StateCheckingProfile:
		return ""
	default:
		return "/"
	}
}
