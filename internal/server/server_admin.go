package server

import (
	"encoding/json"
	"net/http"

	"github.com/kamai-suraksha/frontend/internal/offers"
)

// The offer endpoints themselves are unauthenticated at the API gateway;
// the admin check here gates who can reach them through this app.
func (s *Server) requireAdmin(res http.ResponseWriter, req *http.Request) (*tabSession, bool) {
	sess := s.resolveSession(res, req)
	if !sess.controller.Snapshot().Admin {
		http.Error(res, "admin access required", http.StatusForbidden)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleAdminCreateOffer(res http.ResponseWriter, req *http.Request) {
	if _, ok := s.requireAdmin(res, req); !ok {
		return
	}

	var offer offers.Offer
	if err := json.NewDecoder(req.Body).Decode(&offer); err != nil {
		http.Error(res, "request body must be a valid loan offer", http.StatusBadRequest)
		return
	}

	offerId, err := s.offers.Create(req.Context(), offer)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	writeJson(res, http.StatusCreated, map[string]string{"OfferID": offerId})
}

func (s *Server) handleAdminUpdateOffer(res http.ResponseWriter, req *http.Request) {
	if _, ok := s.requireAdmin(res, req); !ok {
		return
	}

	var offer offers.Offer
	if err := json.NewDecoder(req.Body).Decode(&offer); err != nil {
		http.Error(res, "request body must be a valid loan offer", http.StatusBadRequest)
		return
	}
	if offer.Id == "" {
		http.Error(res, "'id' is required to update an offer", http.StatusBadRequest)
		return
	}

	if err := s.offers.Update(req.Context(), offer); err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	res.WriteHeader(http.StatusNoContent)
}
