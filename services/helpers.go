package services

import (
	"errors"
	"fmt"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/repositories"
)

// handleRepositoryError translates repository and bracket errors into the
// service vocabulary. Unknown errors are wrapped with context.
func handleRepositoryError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentNotUpcoming):
		return ErrTournamentNotUpcoming
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrRegistrationConflict
	case errors.Is(err, repositories.ErrRegistrationClosed):
		return ErrRegistrationNotOpen
	case errors.Is(err, repositories.ErrTournamentFull):
		return ErrTournamentFull
	case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrParticipantUserInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidCreator):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidSize):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	case errors.Is(err, brackets.ErrMatchupNotFound), errors.Is(err, brackets.ErrInvalidMatchupID):
		return ErrMatchupNotFound
	case errors.Is(err, brackets.ErrMatchupDecided):
		return ErrMatchupDecided
	case errors.Is(err, brackets.ErrMatchupNotReady):
		return ErrMatchupNotReady
	case errors.Is(err, brackets.ErrNotInMatchup):
		return ErrNotInMatchup
	case errors.Is(err, brackets.ErrInvalidScore):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
