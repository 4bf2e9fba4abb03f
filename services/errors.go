package services

import "errors"

// Shared errors used across services and by the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrRegistrationNotOpen   = errors.New("tournament registration is not open")
	ErrTournamentFull        = errors.New("tournament registration is full")
	ErrNotEnoughParticipants = errors.New("at least two participants are required to begin a tournament")
	ErrTournamentNotOngoing  = errors.New("tournament is not in progress")
	ErrMatchupNotReady       = errors.New("matchup participants are not resolved yet")
	ErrNotInMatchup          = errors.New("participant is not part of this matchup")

	// Conflicts
	ErrUserEmailConflict     = errors.New("email address is already in use")
	ErrRegistrationConflict  = errors.New("user is already registered for this tournament")
	ErrTournamentNotUpcoming = errors.New("tournament has already begun")
	ErrMatchupDecided        = errors.New("matchup already has a winner")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity specific not-found errors
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchupNotFound    = errors.New("matchup not found")
)
