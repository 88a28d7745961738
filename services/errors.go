// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Error is a domain failure with a stable snake_case code for API clients.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrInvalidAmount     = newError("invalid_amount", "xp amount must be between 0 and 1,000,000")
	ErrInvalidTime       = newError("invalid_time", "time taken must be a positive number of seconds")
	ErrInvalidAnswer     = newError("invalid_answer", "answer must be one of A, B, C or D")
	ErrMissingFields     = newError("missing_fields", "missing required fields")
	ErrAlreadyFull       = newError("already_full", "battle is full or not available")
	ErrNotInProgress     = newError("not_in_progress", "battle is not in progress")
	ErrAlreadySubmitted  = newError("already_submitted", "time already submitted for this battle")
	ErrSelfJoin          = newError("self_join", "cannot join your own battle")
	ErrPlayerNotInBattle = newError("player_not_in_battle", "player is not part of this battle")
	ErrBattleNotFound    = newError("battle_not_found", "battle not found")
	ErrUserNotFound      = newError("user_not_found", "user not found")
	ErrChallengeNotFound = newError("challenge_not_found", "challenge not found")
	ErrQuestionNotFound  = newError("question_not_found", "question not found")
	ErrBadgeNotFound     = newError("badge_not_found", "badge not found")

	ErrNotificationNotFound = newError("notification_not_found", "notification not found")
	ErrInvalidCredentials   = newError("invalid_credentials", "invalid credentials")
	ErrUsernameTaken        = newError("username_taken", "username already exists")
	ErrEmailTaken           = newError("email_taken", "email already exists")
	ErrInvalidFile          = newError("invalid_file", "avatar must be an image no larger than 2 MiB")
	ErrCorruptProgress      = newError("corrupt_progress", "stored xp_for_next_level is not positive")
	ErrStorageFailure       = newError("storage_failure", "storage unavailable")
)

// storageFailure keeps the driver error while making errors.Is(err, ErrStorageFailure) hold.
func storageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorageFailure, err))
}

// txError passes domain errors through and wraps everything else as a storage failure.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return storageFailure(op, err)
}
