package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/services"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	logger            *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins. An empty list
// or "*" allows any origin.
func NewWebSocketHandler(hub *brackets.Hub, ts services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// ServeWs godoc
// @Summary Subscribe to live bracket updates
// @Description Upgrades to a websocket. The first message carries the current bracket once it exists.
// @Tags brackets
// @Param tournamentID path string true "Tournament ID"
// @Success 101 "Switching protocols"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Router /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", slog.String("tournament_id", tournamentID.String()), slog.Any("error", err))
		return
	}

	room := brackets.RoomForTournament(tournamentID.String())
	client := brackets.NewClient(h.hub, conn, room)
	client.HoldUntilSnapshot()
	if !h.hub.Join(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	// Read after joining: anything committed later is broadcast to the client
	// and delivered behind the snapshot.
	h.hub.SendSnapshot(client, h.snapshot(r, tournamentID, room))

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client connected", slog.String("room", room))
}

// snapshot returns the BRACKET_SNAPSHOT message of a begun tournament, or nil
// before the bracket exists or when the read fails.
func (h *WebSocketHandler) snapshot(r *http.Request, tournamentID uuid.UUID, room string) []byte {
	tournament, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID)
	if err != nil {
		h.logger.Warn("websocket snapshot read failed", slog.String("tournament_id", tournamentID.String()), slog.Any("error", err))
		return nil
	}
	if len(tournament.Bracket) == 0 {
		return nil
	}
	payload, err := json.Marshal(brackets.WebSocketMessage{
		Type: brackets.MessageBracketSnapshot,
		Payload: services.BracketEventPayload{
			TournamentID:        tournament.ID,
			Status:              tournament.Status,
			WinnerParticipantID: tournament.WinnerParticipantID,
			Bracket:             tournament.Bracket,
		},
		RoomID: room,
	})
	if err != nil {
		h.logger.Error("failed to marshal websocket snapshot", slog.String("tournament_id", tournamentID.String()), slog.Any("error", err))
		return nil
	}
	return payload
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
