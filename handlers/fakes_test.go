package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/models"
	"github.com/musikmadness/musikmadness-api/services"
)

type stubAuthService struct {
	user *models.User
	err  error
}

func (s *stubAuthService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: uuid.New(), DisplayName: input.DisplayName, Email: input.Email}, nil
}

func (s *stubAuthService) Login(context.Context, services.LoginInput) (*models.User, error) {
	return s.user, s.err
}

type stubTournamentService struct {
	tournament   *models.Tournament
	participant  *models.Participant
	err          error
	lastFilter   services.ListTournamentsInput
	lastJoin     services.JoinTournamentInput
	lastUserID   uuid.UUID
	deletedID    uuid.UUID
	participants []models.Participant
	// onGet runs on every GetTournamentByID with the 1-based call number.
	onGet func(n int)
	reads int
}

func (s *stubTournamentService) CreateTournament(_ context.Context, creatorID uuid.UUID, input services.CreateTournamentInput) (*models.Tournament, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastUserID = creatorID
	return &models.Tournament{ID: uuid.New(), Name: input.Name, CreatorID: creatorID, Status: models.StatusUpcoming, BracketSize: 64}, nil
}

func (s *stubTournamentService) GetTournamentByID(context.Context, uuid.UUID) (*models.Tournament, error) {
	s.reads++
	if s.onGet != nil {
		s.onGet(s.reads)
	}
	return s.tournament, s.err
}

func (s *stubTournamentService) ListTournaments(_ context.Context, filter services.ListTournamentsInput) ([]models.Tournament, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return []models.Tournament{}, nil
}

func (s *stubTournamentService) DeleteTournament(_ context.Context, id, userID uuid.UUID) error {
	s.deletedID = id
	s.lastUserID = userID
	return s.err
}

func (s *stubTournamentService) JoinTournament(_ context.Context, _, userID uuid.UUID, input services.JoinTournamentInput) (*models.Participant, error) {
	s.lastUserID = userID
	s.lastJoin = input
	return s.participant, s.err
}

func (s *stubTournamentService) ListParticipants(context.Context, uuid.UUID) ([]models.Participant, error) {
	return s.participants, s.err
}

type stubBracketService struct {
	tournament  *models.Tournament
	bracket     brackets.Bracket
	layout      *brackets.BracketLayout
	matchup     *brackets.Matchup
	err         error
	lastMatchup string
	lastInput   services.RecordWinnerInput
}

func (s *stubBracketService) BeginTournament(context.Context, uuid.UUID, uuid.UUID) (*models.Tournament, error) {
	return s.tournament, s.err
}

func (s *stubBracketService) GetBracket(context.Context, uuid.UUID) (brackets.Bracket, error) {
	return s.bracket, s.err
}

func (s *stubBracketService) GetLayout(context.Context, uuid.UUID) (*brackets.BracketLayout, error) {
	return s.layout, s.err
}

func (s *stubBracketService) GetMatchup(_ context.Context, _ uuid.UUID, matchupID string) (*brackets.Matchup, error) {
	s.lastMatchup = matchupID
	return s.matchup, s.err
}

func (s *stubBracketService) RecordWinner(_ context.Context, _ uuid.UUID, matchupID string, _ uuid.UUID, input services.RecordWinnerInput) (*services.RecordWinnerResult, error) {
	s.lastMatchup = matchupID
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &services.RecordWinnerResult{Tournament: s.tournament, Matchup: *s.matchup}, nil
}
