package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kamai-suraksha/frontend/internal/handoff"
	"github.com/kamai-suraksha/frontend/internal/session"
)

// SessionCookieName identifies a browser tab session. Each session owns
// its own token store pair (persistent + volatile) and handoff controller,
// mirroring the localStorage/sessionStorage split the web client had.
const SessionCookieName = "ks_session"

// sessionIdleTTL bounds how long an idle tab session (and the tokens it
// holds) stays resident. /logout removes a session immediately; the sweep
// catches abandoned tabs and cookie-less clients that mint a fresh
// session on every request.
const sessionIdleTTL = 12 * time.Hour

// sessionSweepInterval rate-limits the registry scan.
const sessionSweepInterval = time.Minute

type tabSession struct {
	id         string
	store      *session.TokenStore
	manager    *session.Manager
	controller *handoff.Controller
	// loginState is the state value sent with the most recent redirect to
	// the hosted login page, echoed back by the provider.
	loginState string
	lastSeen   time.Time
}

func (s *Server) newTabSession(id string) *tabSession {
	store := session.NewTokenStore(session.NewMemoryStorage(), session.NewMemoryStorage())
	manager := session.NewManager(store, s.identity)
	return &tabSession{
		id:         id,
		store:      store,
		manager:    manager,
		controller: handoff.New(store, manager, s.identity, s.profiles),
	}
}

// resolveSession returns the tab session for the request's cookie,
// creating one (and setting the cookie) if none exists yet.
func (s *Server) resolveSession(res http.ResponseWriter, req *http.Request) *tabSession {
	s.sessionsMutex.Lock()
	defer s.sessionsMutex.Unlock()

	now := time.Now()
	s.evictIdleSessions(now)

	if cookie, err := req.Cookie(SessionCookieName); err == nil {
		if sess, ok := s.sessions[cookie.Value]; ok {
			sess.lastSeen = now
			return sess
		}
	}

	sess := s.newTabSession(uuid.NewString())
	sess.lastSeen = now
	s.sessions[sess.id] = sess
	http.SetCookie(res, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// evictIdleSessions drops sessions idle past the TTL so the registry
// can't grow without bound. Callers must hold sessionsMutex.
func (s *Server) evictIdleSessions(now time.Time) {
	if now.Sub(s.lastSweep) < sessionSweepInterval {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.sessionTTL {
			delete(s.sessions, id)
		}
	}
}

func (s *Server) dropSession(res http.ResponseWriter, id string) {
	s.sessionsMutex.Lock()
	defer s.sessionsMutex.Unlock()
	delete(s.sessions, id)
	http.SetCookie(res, &http.Cookie{
		Name:   SessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
