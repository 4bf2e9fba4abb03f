package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/metrics"
	"github.com/musikmadness/musikmadness-api/models"
	"github.com/musikmadness/musikmadness-api/repositories"
)

var ErrBracketNotGenerated = errors.New("bracket has not been generated yet")

// BracketBroadcaster pushes realtime messages to the clients of a room.
type BracketBroadcaster interface {
	BroadcastToRoom(roomID string, message any)
}

// BracketEventPayload is the payload of every bracket websocket message.
type BracketEventPayload struct {
	TournamentID        uuid.UUID               `json:"tournament_id"`
	Status              models.TournamentStatus `json:"status"`
	WinnerParticipantID *uuid.UUID              `json:"winner_participant_id,omitempty"`
	Matchup             *brackets.Matchup       `json:"matchup,omitempty"`
	Bracket             brackets.Bracket        `json:"bracket,omitempty"`
}

type RecordWinnerInput struct {
	WinnerParticipantID string `json:"winner_participant_id"`
	Player1Score        *int   `json:"player1_score,omitempty"`
	Player2Score        *int   `json:"player2_score,omitempty"`
}

type RecordWinnerResult struct {
	Tournament *models.Tournament `json:"tournament"`
	Matchup    brackets.Matchup   `json:"matchup"`
}

type BracketService interface {
	BeginTournament(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Tournament, error)
	GetBracket(ctx context.Context, tournamentID uuid.UUID) (brackets.Bracket, error)
	GetLayout(ctx context.Context, tournamentID uuid.UUID) (*brackets.BracketLayout, error)
	GetMatchup(ctx context.Context, tournamentID uuid.UUID, matchupID string) (*brackets.Matchup, error)
	RecordWinner(ctx context.Context, tournamentID uuid.UUID, matchupID string, userID uuid.UUID, input RecordWinnerInput) (*RecordWinnerResult, error)
}

type bracketService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	generator       brackets.BracketGenerator
	archiver        *BracketArchiver
	broadcaster     BracketBroadcaster
	metrics         *metrics.Recorder
	logger          *slog.Logger
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	generator brackets.BracketGenerator,
	archiver *BracketArchiver,
	broadcaster BracketBroadcaster,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) BracketService {
	if generator == nil {
		generator = brackets.NewSingleEliminationGenerator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		generator:       generator,
		archiver:        archiver,
		broadcaster:     broadcaster,
		metrics:         recorder,
		logger:          logger,
	}
}

// BeginTournament seeds the registered participants into a fresh bracket and
// moves the tournament from upcoming to ongoing. The participants are read and
// the bracket is stored under the tournament's row lock, so no join can slip
// in between and only one of several racing requests succeeds; the rest get
// ErrTournamentNotUpcoming.
func (s *bracketService) BeginTournament(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get tournament %s", tournamentID)
	}
	if tournament.CreatorID != userID {
		return nil, ErrForbiddenOperation
	}
	if tournament.Status != models.StatusUpcoming {
		s.metrics.BeginConflict()
		return nil, ErrTournamentNotUpcoming
	}

	var (
		byes       []string
		generation time.Duration
	)
	begun, err := s.tournamentRepo.Begin(ctx, tournamentID, func(t *models.Tournament, participants []models.Participant) (brackets.Bracket, error) {
		if len(participants) < 2 {
			return nil, ErrNotEnoughParticipants
		}

		started := time.Now()
		bracket, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Entrants: models.Entrants(participants),
			Size:     t.BracketSize,
		})
		if err != nil {
			if errors.Is(err, brackets.ErrTooManyParticipants) {
				return nil, ErrTournamentFull
			}
			return nil, fmt.Errorf("failed to generate bracket: %w", err)
		}
		if err := bracket.Validate(); err != nil {
			return nil, fmt.Errorf("generated bracket is invalid: %w", err)
		}
		byes = bracket.AdvanceByes()
		generation = time.Since(started)
		return bracket, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotEnoughParticipants) || errors.Is(err, ErrTournamentFull) {
			return nil, err
		}
		err = handleRepositoryError(err, "failed to begin tournament %s", tournamentID)
		if errors.Is(err, ErrTournamentNotUpcoming) {
			s.metrics.BeginConflict()
		}
		return nil, err
	}

	s.metrics.TournamentBegun(generation, len(byes))
	s.logger.Info("tournament begun",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("participants", len(begun.Participants)),
		slog.Int("bracket_size", begun.BracketSize),
		slog.Int("byes_resolved", len(byes)),
		slog.Duration("generation", generation),
	)

	s.archive(ctx, begun)
	s.broadcast(tournamentID, brackets.MessageBracketGenerated, BracketEventPayload{
		TournamentID: tournamentID,
		Status:       begun.Status,
		Bracket:      begun.Bracket,
	})
	return begun, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (brackets.Bracket, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get tournament %s", tournamentID)
	}
	if len(tournament.Bracket) == 0 {
		return nil, ErrBracketNotGenerated
	}
	return tournament.Bracket, nil
}

// GetLayout returns the grid projection of the bracket. Tournaments that have
// not begun get a preview of the registered participants in sign-up order.
func (s *bracketService) GetLayout(ctx context.Context, tournamentID uuid.UUID) (*brackets.BracketLayout, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get tournament %s", tournamentID)
	}

	if len(tournament.Bracket) > 0 {
		layout := brackets.Layout(tournament.Bracket)
		return &layout, nil
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %s: %w", tournamentID, err)
	}
	layout, err := brackets.Preview(models.Entrants(participants), tournament.BracketSize)
	if err != nil {
		return nil, fmt.Errorf("failed to preview bracket of tournament %s: %w", tournamentID, err)
	}
	return &layout, nil
}

func (s *bracketService) GetMatchup(ctx context.Context, tournamentID uuid.UUID, matchupID string) (*brackets.Matchup, error) {
	if _, _, err := brackets.ParseMatchupID(matchupID); err != nil {
		return nil, ErrMatchupNotFound
	}
	bracket, err := s.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	m, err := bracket.Find(matchupID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to find matchup %s", matchupID)
	}
	return m, nil
}

// RecordWinner decides a matchup of an ongoing tournament. The winner moves
// into the next round and any byes it meets are resolved. Deciding the final
// completes the tournament.
func (s *bracketService) RecordWinner(ctx context.Context, tournamentID uuid.UUID, matchupID string, userID uuid.UUID, input RecordWinnerInput) (*RecordWinnerResult, error) {
	if input.WinnerParticipantID == "" {
		return nil, fmt.Errorf("%w: winner_participant_id is required", ErrValidationFailed)
	}

	var (
		decided   brackets.Matchup
		autoByes  int
		completed bool
	)
	tournament, err := s.tournamentRepo.MutateBracket(ctx, tournamentID, func(t *models.Tournament) error {
		if t.CreatorID != userID {
			return ErrForbiddenOperation
		}
		if t.Status != models.StatusOngoing {
			return ErrTournamentNotOngoing
		}

		if input.Player1Score != nil || input.Player2Score != nil {
			var s1, s2 int
			if input.Player1Score != nil {
				s1 = *input.Player1Score
			}
			if input.Player2Score != nil {
				s2 = *input.Player2Score
			}
			if err := t.Bracket.SetScores(matchupID, s1, s2); err != nil {
				return err
			}
		}

		before := decidedCount(t.Bracket)
		m, err := t.Bracket.RecordWinner(matchupID, input.WinnerParticipantID)
		if err != nil {
			return err
		}
		decided = *m
		autoByes = decidedCount(t.Bracket) - before - 1

		if champion := t.Bracket.Champion(); champion != nil {
			winnerID, err := uuid.Parse(*champion)
			if err != nil {
				return fmt.Errorf("champion id %q is not a participant id: %w", *champion, err)
			}
			t.Status = models.StatusCompleted
			t.WinnerParticipantID = &winnerID
			completed = true
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbiddenOperation) || errors.Is(err, ErrTournamentNotOngoing) {
			return nil, err
		}
		return nil, handleRepositoryError(err, "failed to record winner of %s in tournament %s", matchupID, tournamentID)
	}

	s.metrics.MatchupDecided(autoByes, completed)
	s.logger.Info("matchup decided",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("matchup_id", matchupID),
		slog.String("winner_participant_id", input.WinnerParticipantID),
		slog.Bool("tournament_completed", completed),
	)

	s.broadcast(tournamentID, brackets.MessageMatchupUpdated, BracketEventPayload{
		TournamentID: tournamentID,
		Status:       tournament.Status,
		Matchup:      &decided,
		Bracket:      tournament.Bracket,
	})
	if completed {
		s.archive(ctx, tournament)
		s.broadcast(tournamentID, brackets.MessageTournamentCompleted, BracketEventPayload{
			TournamentID:        tournamentID,
			Status:              tournament.Status,
			WinnerParticipantID: tournament.WinnerParticipantID,
		})
	}

	return &RecordWinnerResult{Tournament: tournament, Matchup: decided}, nil
}

// archive is best effort: the bracket is already committed.
func (s *bracketService) archive(ctx context.Context, t *models.Tournament) {
	if !s.archiver.Enabled() {
		return
	}
	if _, err := s.archiver.Archive(ctx, t); err != nil {
		s.metrics.ArchiveFailed()
		s.logger.Warn("bracket archive failed", slog.String("tournament_id", t.ID.String()), slog.Any("error", err))
	}
}

func (s *bracketService) broadcast(tournamentID uuid.UUID, messageType string, payload BracketEventPayload) {
	if s.broadcaster == nil {
		return
	}
	room := brackets.RoomForTournament(tournamentID.String())
	s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  room,
	})
}

func decidedCount(b brackets.Bracket) int {
	n := 0
	for i := range b {
		if b[i].Decided() {
			n++
		}
	}
	return n
}
