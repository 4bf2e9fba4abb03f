package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/musikmadness/musikmadness-api/middleware"
	"github.com/musikmadness/musikmadness-api/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// Begin godoc
// @Summary Begin a tournament
// @Description Seeds the registered participants into a new bracket and moves the tournament to ongoing. Concurrent calls race; exactly one wins and the rest get 409.
// @Tags brackets
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Tournament with bracket"
// @Failure 403 {object} map[string]string "Not the creator"
// @Failure 409 {object} map[string]string "Tournament already begun"
// @Failure 422 {object} map[string]string "Not enough participants"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/begin [post]
func (h *BracketHandler) Begin(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to begin tournament")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.bracketService.BeginTournament(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracket godoc
// @Summary Get the bracket of a begun tournament
// @Tags brackets
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Bracket"
// @Failure 404 {object} map[string]string "Not generated yet"
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetLayout godoc
// @Summary Get the grid layout of the bracket
// @Description Upcoming tournaments get a preview of the registered participants.
// @Tags brackets
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Layout"
// @Router /tournaments/{tournamentID}/bracket/layout [get]
func (h *BracketHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	layout, err := h.bracketService.GetLayout(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"layout": layout}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchup godoc
// @Summary Get one matchup
// @Tags brackets
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param matchupID path string true "Matchup ID, e.g. R1M3"
// @Success 200 {object} map[string]interface{} "Matchup"
// @Failure 404 {object} map[string]string "Not found"
// @Router /tournaments/{tournamentID}/matchups/{matchupID} [get]
func (h *BracketHandler) GetMatchup(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matchup, err := h.bracketService.GetMatchup(r.Context(), tournamentID, chi.URLParam(r, "matchupID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchup": matchup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordWinner godoc
// @Summary Record the winner of a matchup
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param matchupID path string true "Matchup ID"
// @Param body body services.RecordWinnerInput true "Winner and optional scores"
// @Success 200 {object} map[string]interface{} "Decided matchup and tournament"
// @Failure 409 {object} map[string]string "Matchup already decided"
// @Failure 422 {object} map[string]string "Matchup not ready or winner not in matchup"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matchups/{matchupID}/winner [post]
func (h *BracketHandler) RecordWinner(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to record a result")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordWinnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.RecordWinner(r.Context(), tournamentID, chi.URLParam(r, "matchupID"), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchup": result.Matchup, "tournament": result.Tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
