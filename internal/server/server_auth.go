package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/kamai-suraksha/frontend/internal/handoff"
)

func (s *Server) handleLogin(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)

	s.sessionsMutex.Lock()
	sess.loginState = uuid.NewString()
	state := sess.loginState
	s.sessionsMutex.Unlock()

	http.Redirect(res, req, s.identity.AuthCodeURL(state), http.StatusSeeOther)
}

func (s *Server) handleCallback(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)

	// Verify the echoed state against the value we sent at login, when we
	// have one to compare to.
	s.sessionsMutex.Lock()
	expectedState := sess.loginState
	sess.loginState = ""
	s.sessionsMutex.Unlock()
	if state := req.URL.Query().Get("state"); expectedState != "" && state != expectedState {
		s.redirectResult(res, req, handoff.Result{
			State:        handoff.StateAnonymous,
			NavigateTo:   "/",
			ErrorMessage: "Login failed: state verification failed",
		})
		return
	}

	result := sess.controller.HandleCallback(req.Context(), req.URL.Query())
	// Answering with a redirect strips the one-time code from the
	// user-visible URL, so a page refresh can't replay it.
	s.redirectResult(res, req, result)
}

func (s *Server) handleLogout(res http.ResponseWriter, req *http.Request) {
	sess := s.resolveSession(res, req)
	logoutUrl := sess.controller.SignOut()
	s.dropSession(res, sess.id)
	http.Redirect(res, req, logoutUrl, http.StatusSeeOther)
}

func (s *Server) redirectResult(res http.ResponseWriter, req *http.Request, result handoff.Result) {
	target := result.NavigateTo
	if target == "" {
		target = "/"
	}
	if result.ErrorMessage != "" {
		target = fmt.Sprintf("%s?auth_error=%s", target, url.QueryEscape(result.ErrorMessage))
	}
	http.Redirect(res, req, target, http.StatusSeeOther)
}
