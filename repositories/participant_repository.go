package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/models"
)

var (
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user conflict or invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
	ErrRegistrationClosed           = errors.New("tournament is no longer accepting participants")
	ErrTournamentFull               = errors.New("tournament has no free slots")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

// Create registers the participant while the tournament is upcoming and has
// a free slot. The tournament row is locked for the check and the insert, the
// same lock Begin takes, so joins never overfill a bracket or land after it
// was generated. CreatedAt and DisplayName are filled from the new row.
func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		} else if err != nil {
			_ = tx.Rollback()
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	var t models.Tournament
	err = tx.QueryRowContext(ctx,
		`SELECT status, bracket_size, max_participants FROM tournaments WHERE id = $1 FOR UPDATE`,
		p.TournamentID,
	).Scan(&t.Status, &t.BracketSize, &t.MaxParticipants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrParticipantTournamentInvalid
		}
		return fmt.Errorf("failed to lock tournament %s: %w", p.TournamentID, err)
	}
	if t.Status != models.StatusUpcoming {
		return ErrRegistrationClosed
	}

	count, err := countParticipants(ctx, tx, p.TournamentID)
	if err != nil {
		return err
	}
	if count >= t.Capacity() {
		return ErrTournamentFull
	}

	query := `
		WITH inserted AS (
			INSERT INTO participants (id, tournament_id, user_id, track_title)
			VALUES ($1, $2, $3, $4)
			RETURNING user_id, created_at
		)
		SELECT i.created_at, u.display_name
		FROM inserted i
		JOIN users u ON u.id = i.user_id`

	err = tx.QueryRowContext(ctx, query,
		p.ID,
		p.TournamentID,
		p.UserID,
		p.TrackTitle,
	).Scan(&p.CreatedAt, &p.DisplayName)

	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				if constraint == "participants_user_id_tournament_id_key" {
					return ErrParticipantConflict
				}
			case pqForeignKeyViolation:
				switch constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// ListByTournament returns participants in registration order.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participant, error) {
	return listParticipants(ctx, r.db, tournamentID)
}

func listParticipants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Participant, error) {
	query := `
		SELECT p.id, p.tournament_id, p.user_id, u.display_name, p.track_title, p.created_at
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1
		ORDER BY p.created_at, p.id`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func countParticipants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %s: %w", tournamentID, err)
	}
	return count, nil
}

func scanParticipant(row rowScanner, p *models.Participant) error {
	return row.Scan(
		&p.ID,
		&p.TournamentID,
		&p.UserID,
		&p.DisplayName,
		&p.TrackTitle,
		&p.CreatedAt,
	)
}
