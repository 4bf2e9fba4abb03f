package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musikmadness/musikmadness-api/models"
)

type tournamentFixture struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	svc          TournamentService
}

func newTournamentFixture() *tournamentFixture {
	users := newFakeUserRepo()
	tournaments := newFakeTournamentRepo()
	f := &tournamentFixture{
		tournaments:  tournaments,
		participants: newFakeParticipantRepo(users, tournaments),
	}
	f.svc = NewTournamentService(f.tournaments, f.participants, nil)
	return f
}

func TestCreateTournamentDefaults(t *testing.T) {
	f := newTournamentFixture()
	creator := uuid.New()

	desc := "  monthly beat battle  "
	tournament, err := f.svc.CreateTournament(context.Background(), creator, CreateTournamentInput{Name: " Beat Battle ", Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, "Beat Battle", tournament.Name)
	assert.Equal(t, "monthly beat battle", *tournament.Description)
	assert.Equal(t, models.StatusUpcoming, tournament.Status)
	assert.Equal(t, DefaultBracketSize, tournament.BracketSize)
	assert.Equal(t, DefaultBracketSize, tournament.MaxParticipants)
	assert.Equal(t, creator, tournament.CreatorID)
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newTournamentFixture()

	testCases := []struct {
		name  string
		input CreateTournamentInput
	}{
		{"empty name", CreateTournamentInput{Name: "   "}},
		{"size not power of two", CreateTournamentInput{Name: "x", BracketSize: 12}},
		{"size too large", CreateTournamentInput{Name: "x", BracketSize: 512}},
		{"size too small", CreateTournamentInput{Name: "x", BracketSize: 1}},
		{"capacity above size", CreateTournamentInput{Name: "x", BracketSize: 8, MaxParticipants: 9}},
		{"capacity below two", CreateTournamentInput{Name: "x", BracketSize: 8, MaxParticipants: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateTournament(context.Background(), uuid.New(), tc.input)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestJoinTournament(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture()
	tournament, err := f.svc.CreateTournament(ctx, uuid.New(), CreateTournamentInput{Name: "Small", BracketSize: 4, MaxParticipants: 3})
	require.NoError(t, err)

	first := uuid.New()
	p, err := f.svc.JoinTournament(ctx, tournament.ID, first, JoinTournamentInput{TrackTitle: "Night Drive"})
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", p.TrackTitle)

	_, err = f.svc.JoinTournament(ctx, tournament.ID, first, JoinTournamentInput{TrackTitle: "Second Try"})
	assert.ErrorIs(t, err, ErrRegistrationConflict)

	_, err = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	for i := 0; i < 2; i++ {
		_, err = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: "Filler"})
		require.NoError(t, err)
	}
	_, err = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: "Too Late"})
	assert.ErrorIs(t, err, ErrTournamentFull)

	_, err = f.svc.JoinTournament(ctx, uuid.New(), uuid.New(), JoinTournamentInput{TrackTitle: "Nowhere"})
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	f.tournaments.setStatus(tournament.ID, models.StatusOngoing)
	_, err = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: "After Start"})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestJoinTournamentConcurrentJoinsStayWithinCapacity(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture()
	creator := uuid.New()
	tournament, err := f.svc.CreateTournament(ctx, creator, CreateTournamentInput{Name: "Rush", BracketSize: 4})
	require.NoError(t, err)

	const joiners = 8
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: "Stampede"})
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, ErrTournamentFull)
	}
	assert.Equal(t, 4, joined)

	participants, err := f.svc.ListParticipants(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 4)

	bracketSvc := NewBracketService(f.tournaments, f.participants, nil, nil, nil, nil, nil)
	begun, err := bracketSvc.BeginTournament(ctx, tournament.ID, creator)
	require.NoError(t, err)
	assert.Len(t, begun.Participants, 4)

	_, err = f.svc.JoinTournament(ctx, tournament.ID, uuid.New(), JoinTournamentInput{TrackTitle: "Late"})
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestGetTournamentByIDLoadsParticipants(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture()
	tournament, err := f.svc.CreateTournament(ctx, uuid.New(), CreateTournamentInput{Name: "Loaded", BracketSize: 8})
	require.NoError(t, err)
	added := f.participants.addParticipants(tournament.ID, 3)

	got, err := f.svc.GetTournamentByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 3)
	assert.Equal(t, added[0].ID, got.Participants[0].ID)

	_, err = f.svc.GetTournamentByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestListTournaments(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture()
	creator := uuid.New()
	a, err := f.svc.CreateTournament(ctx, creator, CreateTournamentInput{Name: "A", BracketSize: 4})
	require.NoError(t, err)
	_, err = f.svc.CreateTournament(ctx, uuid.New(), CreateTournamentInput{Name: "B", BracketSize: 4})
	require.NoError(t, err)

	all, err := f.svc.ListTournaments(ctx, ListTournamentsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListTournaments(ctx, ListTournamentsInput{CreatorID: &creator})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	bogus := models.TournamentStatus("paused")
	_, err = f.svc.ListTournaments(ctx, ListTournamentsInput{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestDeleteTournament(t *testing.T) {
	ctx := context.Background()
	f := newTournamentFixture()
	creator := uuid.New()
	tournament, err := f.svc.CreateTournament(ctx, creator, CreateTournamentInput{Name: "Doomed", BracketSize: 4})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteTournament(ctx, tournament.ID, uuid.New()), ErrForbiddenOperation)

	f.tournaments.setStatus(tournament.ID, models.StatusOngoing)
	assert.ErrorIs(t, f.svc.DeleteTournament(ctx, tournament.ID, creator), ErrTournamentNotUpcoming)

	f.tournaments.setStatus(tournament.ID, models.StatusUpcoming)
	require.NoError(t, f.svc.DeleteTournament(ctx, tournament.ID, creator))
	assert.ErrorIs(t, f.svc.DeleteTournament(ctx, tournament.ID, creator), ErrTournamentNotFound)
}

func TestListParticipantsUnknownTournament(t *testing.T) {
	f := newTournamentFixture()
	_, err := f.svc.ListParticipants(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
