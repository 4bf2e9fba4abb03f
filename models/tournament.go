package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
)

type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

type Tournament struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Description         *string          `json:"description,omitempty"`
	CreatorID           uuid.UUID        `json:"creator_id"`
	Status              TournamentStatus `json:"status"`
	BracketSize         int              `json:"bracket_size"`
	MaxParticipants     int              `json:"max_participants"`
	WinnerParticipantID *uuid.UUID       `json:"winner_participant_id,omitempty"`
	Bracket             brackets.Bracket `json:"bracket,omitempty"`
	StartedAt           *time.Time       `json:"started_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`

	Participants []Participant `json:"participants,omitempty"`
}

// Entrants snapshots the participants for seeding.
func Entrants(participants []Participant) []brackets.Entrant {
	entrants := make([]brackets.Entrant, len(participants))
	for i, p := range participants {
		entrants[i] = brackets.Entrant{ID: p.ID.String(), DisplayName: p.DisplayName}
	}
	return entrants
}

// Capacity is how many participants may register: MaxParticipants when set
// below the bracket size, otherwise the bracket size.
func (t *Tournament) Capacity() int {
	if t.MaxParticipants > 0 && t.MaxParticipants < t.BracketSize {
		return t.MaxParticipants
	}
	return t.BracketSize
}
