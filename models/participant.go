package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a musician's entry in a tournament, carrying the track they
// compete with.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	TrackTitle   string    `json:"track_title"`
	CreatedAt    time.Time `json:"created_at"`
}
