package handlers

import (
	"net/http"

	"github.com/musikmadness/musikmadness-api/middleware"
	"github.com/musikmadness/musikmadness-api/services"
)

type ParticipantHandler struct {
	tournamentService services.TournamentService
}

func NewParticipantHandler(ts services.TournamentService) *ParticipantHandler {
	return &ParticipantHandler{tournamentService: ts}
}

// Join godoc
// @Summary Register the current user with a track
// @Tags participants
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param body body services.JoinTournamentInput true "Track"
// @Success 201 {object} map[string]interface{} "Participant"
// @Failure 409 {object} map[string]string "Already registered or full"
// @Failure 422 {object} map[string]string "Registration closed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants [post]
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to join tournament")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.JoinTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.tournamentService.JoinTournament(r.Context(), tournamentID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary List participants in sign-up order
// @Tags participants
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Participants"
// @Router /tournaments/{tournamentID}/participants [get]
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.tournamentService.ListParticipants(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
