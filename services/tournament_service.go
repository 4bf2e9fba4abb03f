package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/models"
	"github.com/musikmadness/musikmadness-api/repositories"
)

const (
	DefaultBracketSize = 64
	MaxBracketSize     = 256
	maxNameLength      = 200
	maxTrackLength     = 200
)

type TournamentService interface {
	CreateTournament(ctx context.Context, creatorID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter ListTournamentsInput) ([]models.Tournament, error)
	DeleteTournament(ctx context.Context, id, userID uuid.UUID) error
	JoinTournament(ctx context.Context, tournamentID, userID uuid.UUID, input JoinTournamentInput) (*models.Participant, error)
	ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]models.Participant, error)
}

type CreateTournamentInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	// BracketSize defaults to 64 and must be a power of two in [2, 256].
	BracketSize int `json:"bracket_size,omitempty"`
	// MaxParticipants defaults to BracketSize.
	MaxParticipants int `json:"max_participants,omitempty"`
}

type ListTournamentsInput struct {
	CreatorID *uuid.UUID
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

type JoinTournamentInput struct {
	TrackTitle string `json:"track_title"`
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, creatorID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: tournament name must be at most %d characters", ErrValidationFailed, maxNameLength)
	}

	size := input.BracketSize
	if size == 0 {
		size = DefaultBracketSize
	}
	if size < 2 || size > MaxBracketSize || !brackets.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: bracket size must be a power of two between 2 and %d, got %d", ErrValidationFailed, MaxBracketSize, size)
	}

	maxParticipants := input.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = size
	}
	if maxParticipants < 2 || maxParticipants > size {
		return nil, fmt.Errorf("%w: max participants must be between 2 and the bracket size %d", ErrValidationFailed, size)
	}

	var description *string
	if d := strings.TrimSpace(derefString(input.Description)); d != "" {
		description = &d
	}

	tournament := &models.Tournament{
		Name:            name,
		Description:     description,
		CreatorID:       creatorID,
		Status:          models.StatusUpcoming,
		BracketSize:     size,
		MaxParticipants: maxParticipants,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, handleRepositoryError(err, "failed to create tournament")
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("creator_id", creatorID.String()),
		slog.Int("bracket_size", size),
	)
	return tournament, nil
}

// GetTournamentByID loads the tournament and its participants concurrently.
func (s *tournamentService) GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var (
		tournament   *models.Tournament
		participants []models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, id)
		if err != nil {
			return handleRepositoryError(err, "failed to get tournament %s", id)
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		p, err := s.participantRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list participants of tournament %s: %w", id, err)
		}
		participants = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Participants = participants
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter ListTournamentsInput) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrValidationFailed)
	}

	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		CreatorID: filter.CreatorID,
		Status:    filter.Status,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// DeleteTournament removes an upcoming tournament. Only its creator may do so.
func (s *tournamentService) DeleteTournament(ctx context.Context, id, userID uuid.UUID) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return handleRepositoryError(err, "failed to get tournament %s", id)
	}
	if tournament.CreatorID != userID {
		return ErrForbiddenOperation
	}
	if tournament.Status != models.StatusUpcoming {
		return ErrTournamentNotUpcoming
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, "failed to delete tournament %s", id)
	}
	s.logger.Info("tournament deleted", slog.String("tournament_id", id.String()))
	return nil
}

// JoinTournament registers userID while the tournament is upcoming and below
// capacity. The repository checks both under the tournament's row lock, and
// capacity never exceeds the bracket size, which keeps seeding within its
// slot count.
func (s *tournamentService) JoinTournament(ctx context.Context, tournamentID, userID uuid.UUID, input JoinTournamentInput) (*models.Participant, error) {
	track := strings.TrimSpace(input.TrackTitle)
	if track == "" {
		return nil, fmt.Errorf("%w: track title is required", ErrValidationFailed)
	}
	if len(track) > maxTrackLength {
		return nil, fmt.Errorf("%w: track title must be at most %d characters", ErrValidationFailed, maxTrackLength)
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		TrackTitle:   track,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, handleRepositoryError(err, "failed to register participant")
	}

	s.logger.Info("participant joined",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("participant_id", participant.ID.String()),
	)
	return participant, nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "failed to get tournament %s", tournamentID)
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %s: %w", tournamentID, err)
	}
	return participants, nil
}
