package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kamai-suraksha/frontend/internal/applications"
	"github.com/kamai-suraksha/frontend/internal/backend"
	"github.com/kamai-suraksha/frontend/internal/handoff"
	"github.com/kamai-suraksha/frontend/internal/offers"
)

func (s *Server) handleGetState(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)
	result := sess.controller.Resume(req.Context())
	writeJson(res, http.StatusOK, StateResponse{
		State:      result.State,
		NavigateTo: result.NavigateTo,
		Error:      result.ErrorMessage,
		Session:    sess.controller.Snapshot(),
	})
}

func (s *Server) handleGetOffers(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)
	catalog, err := s.offers.List(req.Context())
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	if req.URL.Query().Get("eligible") == "1" {
		catalog = offers.Eligible(catalog, sess.controller.Snapshot().ConfidenceScore)
	}
	writeJson(res, http.StatusOK, catalog)
}

func (s *Server) handlePostOnboarding(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)

	var body OnboardingRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(res, "request body must be a valid onboarding payload", http.StatusBadRequest)
		return
	}
	if body.FullName == "" {
		http.Error(res, "'full_name' is required", http.StatusBadRequest)
		return
	}

	result := sess.controller.CompleteOnboarding(req.Context(), body.toProfile(sess.controller.Snapshot()))
	status := http.StatusOK
	if result.State == handoff.StateAnonymous {
		// Session expired mid-submission and sign-out semantics applied.
		status = http.StatusUnauthorized
	}
	writeJson(res, status, StateResponse{
		State:      result.State,
		NavigateTo: result.NavigateTo,
		Error:      result.ErrorMessage,
		Session:    sess.controller.Snapshot(),
	})
}

func (s *Server) handleGetApplications(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)
	accessToken := sess.manager.GetValidAccessToken(req.Context())
	if accessToken == "" {
		http.Error(res, "session expired; please log in again", http.StatusUnauthorized)
		return
	}

	apps, err := s.applications.List(req.Context(), accessToken)
	if err != nil {
		s.failAuthenticatedCall(res, sess, err)
		return
	}
	sess.controller.SetApplications(apps)
	writeJson(res, http.StatusOK, apps)
}

func (s *Server) handlePostApplication(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)
	accessToken := sess.manager.GetValidAccessToken(req.Context())
	if accessToken == "" {
		http.Error(res, "session expired; please log in again", http.StatusUnauthorized)
		return
	}

	var app applications.Application
	if err := json.NewDecoder(req.Body).Decode(&app); err != nil {
		http.Error(res, "request body must be a valid loan application", http.StatusBadRequest)
		return
	}
	if app.Status == "" {
		app.Status = "Pending"
	}

	if err := s.applications.Create(req.Context(), accessToken, app); err != nil {
		s.failAuthenticatedCall(res, sess, err)
		return
	}
	res.WriteHeader(http.StatusCreated)
}

// failAuthenticatedCall maps a gateway failure to a response. A rejected
// token means the session is invalid: stale tokens must not linger, so the
// sign-out transition runs before we answer.
func (s *Server) failAuthenticatedCall(res http.ResponseWriter, sess *tabSession, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		sess.controller.SignOut()
		http.Error(res, "session expired; please log in again", http.StatusUnauthorized)
		return
	}
	http.Error(res, err.Error(), http.StatusBadGateway)
}

func writeJson(res http.ResponseWriter, status int, value interface{}) {
	res.Header().Set("content-type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(value); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
