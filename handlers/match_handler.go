package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caduhr/bolao-system/middleware"
	"github.com/caduhr/bolao-system/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	resultService services.ResultService
}

func NewMatchHandler(matchService services.MatchService, resultService services.ResultService) *MatchHandler {
	return &MatchHandler{
		matchService:  matchService,
		resultService: resultService,
	}
}

// ImportFixtures loads a batch of fixtures into a pool.
func (h *MatchHandler) ImportFixtures(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Fixtures []services.FixtureInput `json:"fixtures"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ImportFixtures(r.Context(), userID, chi.URLParam(r, "slug"), input.Fixtures)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListByPool(w http.ResponseWriter, r *http.Request) {
	var finished *bool
	switch r.URL.Query().Get("finished") {
	case "":
	case "true":
		v := true
		finished = &v
	case "false":
		v := false
		finished = &v
	default:
		badRequestResponse(w, r, errors.New("finished must be true or false"))
		return
	}

	matches, err := h.matchService.ListByPool(r.Context(), chi.URLParam(r, "slug"), finished)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
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

	var input services.RescheduleMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Reschedule(r.Context(), userID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.matchService.Delete(r.Context(), userID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resultInput struct {
	HomeScore *int `json:"home_score"`
	AwayScore *int `json:"away_score"`
}

// PostResult records the final score and triggers scoring of every bet.
func (h *MatchHandler) PostResult(w http.ResponseWriter, r *http.Request) {
	h.applyResult(w, r, false)
}

// CorrectResult replaces an already posted score.
func (h *MatchHandler) CorrectResult(w http.ResponseWriter, r *http.Request) {
	h.applyResult(w, r, true)
}

func (h *MatchHandler) applyResult(w http.ResponseWriter, r *http.Request, correction bool) {
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

	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if correction {
		err = h.resultService.CorrectMatchResult(r.Context(), userID, matchID, input.HomeScore, input.AwayScore)
	} else {
		err = h.resultService.FinalizeMatch(r.Context(), userID, matchID, input.HomeScore, input.AwayScore)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "result recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
