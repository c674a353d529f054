package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/kamai-suraksha/frontend/internal/applications"
	"github.com/kamai-suraksha/frontend/internal/handoff"
	"github.com/kamai-suraksha/frontend/internal/identity"
	"github.com/kamai-suraksha/frontend/internal/offers"
)

// OfferCatalog is the subset of the loan-offer gateway the server uses.
type OfferCatalog interface {
	List(ctx context.Context) ([]offers.Offer, error)
	Create(ctx context.Context, offer offers.Offer) (string, error)
	Update(ctx context.Context, offer offers.Offer) error
}

// ApplicationStore is the subset of the loan-application gateway the
// server uses.
type ApplicationStore interface {
	List(ctx context.Context, accessToken string) ([]applications.Application, error)
	Create(ctx context.Context, accessToken string, app applications.Application) error
}

// Server is the web app's HTTP surface: the authentication endpoints that
// drive the handoff state machine, plus a session-scoped JSON API the
// views read from.
type Server struct {
	http.Handler

	identity     identity.Client
	profiles     handoff.ProfileClient
	offers       OfferCatalog
	applications ApplicationStore

	sessions      map[string]*tabSession
	sessionsMutex sync.Mutex
	sessionTTL    time.Duration
	lastSweep     time.Time
}

func New(identityClient identity.Client, profiles handoff.ProfileClient, offerCatalog OfferCatalog, applicationStore ApplicationStore) *Server {
	s := &Server{
		identity:     identityClient,
		profiles:     profiles,
		offers:       offerCatalog,
		applications: applicationStore,
		sessions:     make(map[string]*tabSession),
		sessionTTL:   sessionIdleTTL,
	}
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	s.Handler = r
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	// Authentication endpoints: the redirect dance with the hosted login
	// page
	r.Path("/login").Methods("GET").HandlerFunc(s.handleLogin)
	r.Path("/callback").Methods("GET").HandlerFunc(s.handleCallback)
	r.Path("/logout").Methods("GET").HandlerFunc(s.handleLogout)

	// Session-scoped API consumed by the views
	r.Path("/api/state").Methods("GET").HandlerFunc(s.handleGetState)
	r.Path("/api/offers").Methods("GET").HandlerFunc(s.handleGetOffers)
	r.Path("/api/onboarding").Methods("POST").HandlerFunc(s.handlePostOnboarding)
	r.Path("/api/applications").Methods("GET").HandlerFunc(s.handleGetApplications)
	r.Path("/api/applications").Methods("POST").HandlerFunc(s.handlePostApplication)

	// Admin console (the partner console manages the same records)
	r.Path("/api/admin/offers").Methods("POST").HandlerFunc(s.handleAdminCreateOffer)
	r.Path("/api/admin/offers").Methods("PUT").HandlerFunc(s.handleAdminUpdateOffer)
}
