package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caduhr/bolao-system/middleware"
	"github.com/caduhr/bolao-system/services"
)

type BetHandler struct {
	betService services.BetService
}

func NewBetHandler(betService services.BetService) *BetHandler {
	return &BetHandler{betService: betService}
}

// Place creates or replaces the caller's prediction for a match.
func (h *BetHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PlaceBetInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bet, err := h.betService.PlaceBet(r.Context(), userID, chi.URLParam(r, "slug"), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bet": bet}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	bets, err := h.betService.ListUserBets(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bets": bets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByMatch returns all bets on a match once it has kicked off. Before
// kickoff only the caller's own bet is included.
func (h *BetHandler) ListByMatch(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bets, err := h.betService.ListMatchBets(r.Context(), userID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bets": bets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
