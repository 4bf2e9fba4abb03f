package brackets

import (
	"errors"
	"fmt"
)

var ErrInvalidMatchupID = errors.New("invalid matchup id")

// Player is one side of a matchup. A side with a nil ParticipantID is either
// a BYE (IsBye) or still waiting on the result of its feeder matchup.
type Player struct {
	ParticipantID *string `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Score         int     `json:"score"`
	IsBye         bool    `json:"isBye,omitempty"`
}

// Resolved reports whether a real participant occupies the side.
func (p Player) Resolved() bool {
	return p.ParticipantID != nil
}

// Known reports whether the side is settled, either as a participant or a BYE.
func (p Player) Known() bool {
	return p.ParticipantID != nil || p.IsBye
}

func playerFromSlot(s Slot) Player {
	if s.IsBye() {
		return byePlayer()
	}
	id := *s.ParticipantID
	return Player{ParticipantID: &id, DisplayName: s.DisplayName}
}

func byePlayer() Player {
	return Player{DisplayName: ByeDisplayName, IsBye: true}
}

func placeholderPlayer(round, position int) Player {
	return Player{DisplayName: fmt.Sprintf("Winner of Round %d, Match %d", round, position)}
}

type Matchup struct {
	MatchupID           string  `json:"matchupId"`
	RoundNumber         int     `json:"roundNumber"`
	Position            int     `json:"position"`
	Player1             Player  `json:"player1"`
	Player2             Player  `json:"player2"`
	WinnerParticipantID *string `json:"winnerParticipantId"`
	IsPlaceholder       bool    `json:"isPlaceholder"`
	IsBye               bool    `json:"isBye"`

	// FeedsFrom is empty in round one.
	FeedsFrom     []string `json:"feedsFrom,omitempty"`
	FeedsInto     *string  `json:"feedsInto"`
	FeedsIntoSlot int      `json:"feedsIntoSlot,omitempty"`
}

// MatchupID encodes a round and a 1-indexed position, e.g. R2M3.
func MatchupID(round, position int) string {
	return fmt.Sprintf("R%dM%d", round, position)
}

func ParseMatchupID(id string) (round, position int, err error) {
	if n, _ := fmt.Sscanf(id, "R%dM%d", &round, &position); n != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMatchupID, id)
	}
	// Round-trip rejects padding and trailing characters.
	if round < 1 || position < 1 || MatchupID(round, position) != id {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMatchupID, id)
	}
	return round, position, nil
}

// Decided reports whether a winner has been recorded or auto-assigned.
func (m *Matchup) Decided() bool {
	return m.WinnerParticipantID != nil
}

// Void is a matchup with BYEs on both sides. It never produces a winner and
// forwards a BYE to the next round.
func (m *Matchup) Void() bool {
	return m.Player1.IsBye && m.Player2.IsBye
}

func (m *Matchup) player(slot int) *Player {
	if slot == 1 {
		return &m.Player1
	}
	return &m.Player2
}

// refreshFlags recomputes IsBye and IsPlaceholder from the two sides.
func (m *Matchup) refreshFlags() {
	m.IsBye = m.Player1.IsBye != m.Player2.IsBye && (m.Player1.Resolved() || m.Player2.Resolved())
	m.IsPlaceholder = !m.Player1.Known() || !m.Player2.Known()
}
