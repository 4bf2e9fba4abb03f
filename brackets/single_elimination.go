package brackets

import (
	"context"
	"fmt"
)

type SingleEliminationGenerator struct {
	shuffle Shuffler
}

// NewSingleEliminationGenerator builds a generator that seeds with shuffle.
// A nil shuffle falls back to RandomShuffler.
func NewSingleEliminationGenerator(shuffle Shuffler) BracketGenerator {
	if shuffle == nil {
		shuffle = RandomShuffler()
	}
	return &SingleEliminationGenerator{shuffle: shuffle}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket seeds the entrants, pairs the first round and lays out
// placeholder matchups up to the final. Byes are flagged but not resolved;
// callers that persist the bracket run AdvanceByes afterwards.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := params.Size
	if size == 0 {
		size = BracketSize(len(params.Entrants))
	}

	slots, err := SeedSlots(params.Entrants, size, g.shuffle)
	if err != nil {
		return nil, fmt.Errorf("seeding %d participants into %d slots: %w", len(params.Entrants), size, err)
	}

	return assemble(slots), nil
}

// assemble builds the full tree over already seeded slots.
func assemble(slots []Slot) Bracket {
	size := len(slots)
	b := make(Bracket, 0, size-1)
	b = append(b, PairRoundOne(slots)...)
	b = append(b, PlaceholderRounds(size)...)
	linkFeeders(b, Rounds(size))
	return b
}

// PairRoundOne pairs slot 2i with slot 2i+1.
func PairRoundOne(slots []Slot) []Matchup {
	matchups := make([]Matchup, 0, len(slots)/2)
	for i := 0; i+1 < len(slots); i += 2 {
		position := i/2 + 1
		m := Matchup{
			MatchupID:   MatchupID(1, position),
			RoundNumber: 1,
			Position:    position,
			Player1:     playerFromSlot(slots[i]),
			Player2:     playerFromSlot(slots[i+1]),
		}
		m.refreshFlags()
		matchups = append(matchups, m)
	}
	return matchups
}

// PlaceholderRounds builds rounds 2..log2(size). Matchup k of round r is fed
// by matchups 2k-1 and 2k of round r-1.
func PlaceholderRounds(size int) []Matchup {
	total := Rounds(size)
	if total < 2 {
		return nil
	}

	matchups := make([]Matchup, 0, size/2-1)
	for r := 2; r <= total; r++ {
		count := size >> r
		for position := 1; position <= count; position++ {
			left, right := 2*position-1, 2*position
			matchups = append(matchups, Matchup{
				MatchupID:     MatchupID(r, position),
				RoundNumber:   r,
				Position:      position,
				Player1:       placeholderPlayer(r-1, left),
				Player2:       placeholderPlayer(r-1, right),
				IsPlaceholder: true,
				FeedsFrom:     []string{MatchupID(r-1, left), MatchupID(r-1, right)},
			})
		}
	}
	return matchups
}

func linkFeeders(b Bracket, totalRounds int) {
	for i := range b {
		m := &b[i]
		if m.RoundNumber >= totalRounds {
			m.FeedsInto = nil
			m.FeedsIntoSlot = 0
			continue
		}
		next := MatchupID(m.RoundNumber+1, (m.Position+1)/2)
		m.FeedsInto = &next
		m.FeedsIntoSlot = 2 - m.Position%2
	}
}
