package brackets

import (
	"fmt"
	"sort"
)

// MatchupCell places a matchup on a grid: one column per round, rows counted
// in first-round matchup units.
type MatchupCell struct {
	Matchup
	Column    int  `json:"column"`
	Row       int  `json:"row"`
	RowSpan   int  `json:"rowSpan"`
	Navigable bool `json:"navigable"`
}

type RoundLayout struct {
	RoundNumber int           `json:"roundNumber"`
	Title       string        `json:"title"`
	Matchups    []MatchupCell `json:"matchups"`
}

type BracketLayout struct {
	Size    int           `json:"size"`
	Rows    int           `json:"rows"`
	Preview bool          `json:"preview"`
	Rounds  []RoundLayout `json:"rounds"`
}

// Layout projects a bracket of any power-of-two size onto a grid. Matchup at
// (round r, position p) sits in column r-1, starting at row (p-1)*2^(r-1)
// and spanning 2^(r-1) rows, so each matchup is centred between its feeders.
func Layout(b Bracket) BracketLayout {
	size := b.Size()
	layout := BracketLayout{Size: size, Rows: size / 2}

	byRound := b.ByRound()
	roundNumbers := make([]int, 0, len(byRound))
	for r := range byRound {
		roundNumbers = append(roundNumbers, r)
	}
	sort.Ints(roundNumbers)

	total := Rounds(size)
	for _, r := range roundNumbers {
		span := 1 << (r - 1)
		round := RoundLayout{RoundNumber: r, Title: RoundTitle(r, total)}
		for _, m := range byRound[r] {
			round.Matchups = append(round.Matchups, MatchupCell{
				Matchup:   m,
				Column:    r - 1,
				Row:       (m.Position - 1) * span,
				RowSpan:   span,
				Navigable: IsNavigable(m),
			})
		}
		layout.Rounds = append(layout.Rounds, round)
	}
	return layout
}

func RoundTitle(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// IsNavigable reports whether a matchup can be opened from the bracket view:
// it needs an id and at least one real participant. Pure placeholders and
// BYE-vs-BYE matchups stay inert.
func IsNavigable(m Matchup) bool {
	if m.MatchupID == "" {
		return false
	}
	return m.Player1.Resolved() || m.Player2.Resolved()
}

// Preview lays out the entrants in registration order without shuffling, for
// tournaments that have not begun. Nothing here is persisted.
func Preview(entrants []Entrant, size int) (BracketLayout, error) {
	if size == 0 {
		size = BracketSize(len(entrants))
	}
	slots, err := SeedSlots(entrants, size, IdentityShuffler)
	if err != nil {
		return BracketLayout{}, err
	}
	layout := Layout(assemble(slots))
	layout.Preview = true
	return layout, nil
}
