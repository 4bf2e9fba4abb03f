package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutGrid(t *testing.T) {
	b := generate(t, 16, 16, IdentityShuffler)
	layout := Layout(b)

	assert.Equal(t, 16, layout.Size)
	assert.Equal(t, 8, layout.Rows)
	assert.False(t, layout.Preview)
	require.Len(t, layout.Rounds, 4)

	titles := []string{"Round 1", "Quarterfinals", "Semifinals", "Final"}
	for i, round := range layout.Rounds {
		assert.Equal(t, i+1, round.RoundNumber)
		assert.Equal(t, titles[i], round.Title)
		assert.Len(t, round.Matchups, 16>>(i+1))

		span := 1 << i
		rowsCovered := 0
		for j, cell := range round.Matchups {
			assert.Equal(t, i, cell.Column)
			assert.Equal(t, j*span, cell.Row, cell.MatchupID)
			assert.Equal(t, span, cell.RowSpan, cell.MatchupID)
			rowsCovered += cell.RowSpan
		}
		assert.Equal(t, layout.Rows, rowsCovered, "round %d", i+1)
	}
}

func TestLayoutCentresMatchupBetweenFeeders(t *testing.T) {
	layout := Layout(generate(t, 8, 8, IdentityShuffler))

	r2m2 := layout.Rounds[1].Matchups[1]
	r1m3 := layout.Rounds[0].Matchups[2]
	r1m4 := layout.Rounds[0].Matchups[3]

	assert.Equal(t, r1m3.Row, r2m2.Row)
	assert.Equal(t, r1m4.Row+r1m4.RowSpan, r2m2.Row+r2m2.RowSpan)
}

func TestRoundTitle(t *testing.T) {
	assert.Equal(t, "Final", RoundTitle(1, 1))
	assert.Equal(t, "Semifinals", RoundTitle(1, 2))
	assert.Equal(t, "Quarterfinals", RoundTitle(4, 6))
	assert.Equal(t, "Round 3", RoundTitle(3, 6))
}

func TestIsNavigable(t *testing.T) {
	b := fiveInEight(t)
	b.AdvanceByes()

	testCases := []struct {
		matchupID string
		expected  bool
	}{
		{"R1M1", true},  // two participants
		{"R1M3", true},  // participant against a BYE
		{"R1M4", false}, // BYE against BYE
		{"R2M1", false}, // both sides waiting
		{"R2M2", true},  // p5 advanced
		{"R3M1", true},  // p5 waiting for an opponent
	}

	for _, tc := range testCases {
		t.Run(tc.matchupID, func(t *testing.T) {
			m := mustFind(t, b, tc.matchupID)
			assert.Equal(t, tc.expected, IsNavigable(*m))
		})
	}

	assert.False(t, IsNavigable(Matchup{Player1: Player{ParticipantID: cloneString(b[0].Player1.ParticipantID)}}))
}

func TestLayoutMarksNavigableCells(t *testing.T) {
	b := fiveInEight(t)
	b.AdvanceByes()

	for _, round := range Layout(b).Rounds {
		for _, cell := range round.Matchups {
			assert.Equal(t, IsNavigable(cell.Matchup), cell.Navigable, cell.MatchupID)
		}
	}
}

func TestPreviewKeepsRegistrationOrder(t *testing.T) {
	layout, err := Preview(makeEntrants(3), 0)
	require.NoError(t, err)

	assert.True(t, layout.Preview)
	assert.Equal(t, 4, layout.Size)
	require.Len(t, layout.Rounds, 2)

	first := layout.Rounds[0].Matchups
	require.Len(t, first, 2)
	assert.Equal(t, "p1", *first[0].Player1.ParticipantID)
	assert.Equal(t, "p2", *first[0].Player2.ParticipantID)
	assert.Equal(t, "p3", *first[1].Player1.ParticipantID)
	assert.True(t, first[1].Player2.IsBye)

	// Preview does not auto-advance byes.
	assert.Nil(t, first[1].WinnerParticipantID)
	assert.True(t, layout.Rounds[1].Matchups[0].IsPlaceholder)
}

func TestPreviewErrors(t *testing.T) {
	_, err := Preview(makeEntrants(5), 4)
	assert.ErrorIs(t, err, ErrTooManyParticipants)

	_, err = Preview(makeEntrants(2), 12)
	assert.ErrorIs(t, err, ErrInvalidBracketSize)
}
