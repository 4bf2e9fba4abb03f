package brackets

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMatchupNotFound  = errors.New("matchup not found")
	ErrMatchupNotReady  = errors.New("matchup participants are not resolved yet")
	ErrMatchupDecided   = errors.New("matchup already has a winner")
	ErrNotInMatchup     = errors.New("participant is not part of this matchup")
	ErrInvalidScore     = errors.New("score must not be negative")
	ErrMalformedBracket = errors.New("malformed bracket")
)

// Bracket is the flat, round-ordered list of every matchup of a
// single-elimination tree. It is persisted as a JSON snapshot.
type Bracket []Matchup

// Value encodes the bracket as text; lib/pq would send []byte as bytea.
func (b Bracket) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (b *Bracket) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("brackets: cannot scan %T into Bracket", src)
	}
}

// Size is the number of first-round slots.
func (b Bracket) Size() int {
	if len(b) == 0 {
		return 0
	}
	return len(b) + 1
}

func (b Bracket) RoundCount() int {
	rounds := 0
	for _, m := range b {
		if m.RoundNumber > rounds {
			rounds = m.RoundNumber
		}
	}
	return rounds
}

func (b Bracket) ByRound() map[int][]Matchup {
	rounds := make(map[int][]Matchup)
	for _, m := range b {
		rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	}
	for r := range rounds {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].Position < rounds[r][j].Position
		})
	}
	return rounds
}

// Find returns a pointer into the bracket so callers can mutate in place.
func (b Bracket) Find(matchupID string) (*Matchup, error) {
	for i := range b {
		if b[i].MatchupID == matchupID {
			return &b[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMatchupNotFound, matchupID)
}

// Clone returns a deep copy.
func (b Bracket) Clone() Bracket {
	if b == nil {
		return nil
	}
	out := make(Bracket, len(b))
	for i, m := range b {
		m.Player1.ParticipantID = cloneString(m.Player1.ParticipantID)
		m.Player2.ParticipantID = cloneString(m.Player2.ParticipantID)
		m.WinnerParticipantID = cloneString(m.WinnerParticipantID)
		m.FeedsInto = cloneString(m.FeedsInto)
		if m.FeedsFrom != nil {
			m.FeedsFrom = append([]string(nil), m.FeedsFrom...)
		}
		out[i] = m
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Validate checks the structural invariants: S-1 matchups, round r holding
// S/2^r matchups in position order, and feeder links that agree with
// positions.
func (b Bracket) Validate() error {
	size := b.Size()
	if size < 2 || !IsPowerOfTwo(size) {
		return fmt.Errorf("%w: %d matchups is not a complete tree", ErrMalformedBracket, len(b))
	}
	total := Rounds(size)

	idx := 0
	for r := 1; r <= total; r++ {
		for position := 1; position <= size>>r; position++ {
			m := b[idx]
			idx++
			if m.RoundNumber != r || m.Position != position || m.MatchupID != MatchupID(r, position) {
				return fmt.Errorf("%w: expected %s at index %d, found %s", ErrMalformedBracket, MatchupID(r, position), idx-1, m.MatchupID)
			}
			if r == total {
				if m.FeedsInto != nil {
					return fmt.Errorf("%w: final %s must not feed another matchup", ErrMalformedBracket, m.MatchupID)
				}
				continue
			}
			next := MatchupID(r+1, (position+1)/2)
			if m.FeedsInto == nil || *m.FeedsInto != next || m.FeedsIntoSlot != 2-position%2 {
				return fmt.Errorf("%w: %s must feed %s", ErrMalformedBracket, m.MatchupID, next)
			}
		}
	}
	return nil
}

// Final returns the championship matchup.
func (b Bracket) Final() *Matchup {
	if len(b) == 0 {
		return nil
	}
	return &b[len(b)-1]
}

// Champion is the winner of the final, nil until it is decided.
func (b Bracket) Champion() *string {
	final := b.Final()
	if final == nil {
		return nil
	}
	return final.WinnerParticipantID
}

// AdvanceByes settles every matchup that needs no contest. A matchup with a
// real participant facing a BYE is won by that participant; a BYE facing a
// BYE forwards a BYE. The bracket is round-ordered, so one pass reaches the
// fixed point. It returns the ids of matchups that received a winner.
func (b Bracket) AdvanceByes() []string {
	var resolved []string
	for i := range b {
		m := &b[i]
		if m.Decided() {
			continue
		}
		switch {
		case m.Void():
			b.forwardBye(m)
		case m.IsBye:
			winner := m.Player1
			if !winner.Resolved() {
				winner = m.Player2
			}
			m.WinnerParticipantID = cloneString(winner.ParticipantID)
			b.propagate(m, winner)
			resolved = append(resolved, m.MatchupID)
		}
	}
	return resolved
}

// RecordWinner stores the result of a contested matchup, writes the winner
// into the next round and auto-advances any byes that result from it.
func (b Bracket) RecordWinner(matchupID, participantID string) (*Matchup, error) {
	m, err := b.Find(matchupID)
	if err != nil {
		return nil, err
	}
	if m.Decided() {
		return nil, fmt.Errorf("%w: %s", ErrMatchupDecided, matchupID)
	}
	if m.IsPlaceholder || m.Void() {
		return nil, fmt.Errorf("%w: %s", ErrMatchupNotReady, matchupID)
	}

	var winner Player
	switch {
	case m.Player1.Resolved() && *m.Player1.ParticipantID == participantID:
		winner = m.Player1
	case m.Player2.Resolved() && *m.Player2.ParticipantID == participantID:
		winner = m.Player2
	default:
		return nil, fmt.Errorf("%w: %s in %s", ErrNotInMatchup, participantID, matchupID)
	}

	m.WinnerParticipantID = cloneString(winner.ParticipantID)
	b.propagate(m, winner)
	b.AdvanceByes()
	return m, nil
}

func (b Bracket) SetScores(matchupID string, score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return ErrInvalidScore
	}
	m, err := b.Find(matchupID)
	if err != nil {
		return err
	}
	m.Player1.Score = score1
	m.Player2.Score = score2
	return nil
}

func (b Bracket) propagate(m *Matchup, winner Player) {
	next := b.nextSlot(m)
	if next == nil {
		return
	}
	*next.side = Player{ParticipantID: cloneString(winner.ParticipantID), DisplayName: winner.DisplayName}
	next.matchup.refreshFlags()
}

func (b Bracket) forwardBye(m *Matchup) {
	next := b.nextSlot(m)
	if next == nil || next.side.Known() {
		return
	}
	*next.side = byePlayer()
	next.matchup.refreshFlags()
}

type slotRef struct {
	matchup *Matchup
	side    *Player
}

func (b Bracket) nextSlot(m *Matchup) *slotRef {
	if m.FeedsInto == nil {
		return nil
	}
	next, err := b.Find(*m.FeedsInto)
	if err != nil {
		return nil
	}
	return &slotRef{matchup: next, side: next.player(m.FeedsIntoSlot)}
}
