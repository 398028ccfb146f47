package services

import "errors"

// Errors shared across services and mapped to HTTP status codes by handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrPoolNameRequired     = errors.New("pool name is required")
	ErrInvalidRubric        = errors.New("rubric point values must not be negative")
	ErrInvalidEntryFee      = errors.New("entry fee must not be negative")
	ErrNegativePrediction   = errors.New("predicted scores must not be negative")
	ErrNegativeScore        = errors.New("final scores must not be negative")
	ErrMatchAlreadyStarted  = errors.New("the match has already started")
	ErrBettingClosed        = errors.New("the pool is closed for betting")
	ErrMatchNotInPool       = errors.New("match does not belong to this pool")
	ErrMatchAlreadyFinished = errors.New("match result has already been posted")
	ErrMatchNotFinished     = errors.New("match is not finished yet")
	ErrScoresRequired       = errors.New("a match cannot be finished without both scores")
	ErrSameTeam             = errors.New("a match needs two distinct teams")
	ErrPoolNotOpen          = errors.New("pool does not accept new participants")
	ErrPoolFull             = errors.New("pool has reached its participant limit")
	ErrPoolPrivate          = errors.New("pool is private, an invitation is required")
	ErrNotParticipant       = errors.New("user does not participate in this pool")
	ErrInvalidTransition    = errors.New("invalid pool status transition")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrTokenExpired         = errors.New("token has expired")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrAlreadyParticipant   = errors.New("user already participates in this pool")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrOwnerActionForbidden   = errors.New("only the pool owner can perform this action")

	// Entity-specific not-found errors
	ErrUserNotFound          = errors.New("user not found")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrMatchNotFound         = errors.New("match not found")
	ErrBetNotFound           = errors.New("bet not found")
	ErrCompetitionNotFound   = errors.New("competition not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrParticipationNotFound = errors.New("participation not found")
)
