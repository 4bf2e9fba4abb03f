package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/models"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNotUpcoming    = errors.New("tournament has already begun")
	ErrTournamentInvalidCreator = errors.New("invalid creator reference")
	ErrTournamentInvalidSize    = errors.New("tournament capacity violates bracket size")
)

type ListTournamentsFilter struct {
	CreatorID *uuid.UUID
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

// BracketMutation edits a locked tournament in place. Returning an error
// rolls the transaction back.
type BracketMutation func(t *models.Tournament) error

// BracketBuilder produces the bracket of a locked upcoming tournament from the
// participants registered at that moment. Returning an error rolls back.
type BracketBuilder func(t *models.Tournament, participants []models.Participant) (brackets.Bracket, error)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Begin moves an upcoming tournament to ongoing and stores the bracket
	// built by build. Exactly one of several concurrent callers wins; joins
	// are held off until it commits.
	Begin(ctx context.Context, id uuid.UUID, build BracketBuilder) (*models.Tournament, error)
	MutateBracket(ctx context.Context, id uuid.UUID, fn BracketMutation) (*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, creator_id, status, bracket_size, max_participants,
	winner_participant_id, bracket, started_at, created_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Status, &t.BracketSize, &t.MaxParticipants,
		&t.WinnerParticipantID, &t.Bracket, &t.StartedAt, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	query := `
		INSERT INTO tournaments (id, name, description, creator_id, status, bracket_size, max_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Description, t.CreatorID, t.Status, t.BracketSize, t.MaxParticipants,
	).Scan(&t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *postgresTournamentRepository) getByID(ctx context.Context, exec SQLExecutor, id uuid.UUID, forUpdate bool) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t := &models.Tournament{}
	if err := scanTournament(exec.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT
			id, name, description, creator_id, status, bracket_size, max_participants,
			winner_participant_id, started_at, created_at
		FROM tournaments
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.CreatorID, &t.Status, &t.BracketSize, &t.MaxParticipants,
			&t.WinnerParticipantID, &t.StartedAt, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tournaments, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Begin(ctx context.Context, id uuid.UUID, build BracketBuilder) (t *models.Tournament, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			t = nil
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	// The row lock serializes concurrent begins and participant inserts.
	t, err = r.getByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusUpcoming {
		return nil, ErrTournamentNotUpcoming
	}

	participants, err := listParticipants(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	bracket, err := build(t, participants)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE tournaments
		SET status = $3, bracket = $2, started_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING` + tournamentColumns

	begun := &models.Tournament{}
	err = scanTournament(tx.QueryRowContext(ctx, query, id, bracket, models.StatusOngoing, models.StatusUpcoming), begun)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotUpcoming
		}
		return nil, fmt.Errorf("failed to begin tournament %s: %w", id, err)
	}
	begun.Participants = participants
	return begun, nil
}

func (r *postgresTournamentRepository) MutateBracket(ctx context.Context, id uuid.UUID, fn BracketMutation) (t *models.Tournament, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			t = nil
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	t, err = r.getByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err = fn(t); err != nil {
		return nil, err
	}

	query := `
		UPDATE tournaments
		SET bracket = $2, status = $3, winner_participant_id = $4
		WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, t.ID, t.Bracket, t.Status, t.WinnerParticipantID)
	if err != nil {
		return nil, r.handleTournamentError(err)
	}
	if err = checkAffectedRows(result, ErrTournamentNotFound); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	code, constraint, ok := pqConstraint(err)
	if !ok {
		return err
	}
	switch {
	case code == pqForeignKeyViolation && constraint == "tournaments_creator_id_fkey":
		return ErrTournamentInvalidCreator
	case code == pqCheckViolation && constraint == "chk_tournament_capacity":
		return ErrTournamentInvalidSize
	}
	return err
}
