package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when an action requires a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller does not own the resource they act on.
	ErrForbidden = errors.New("not allowed")
	// ErrAlreadyCompleted is returned on a second daily quiz reward for the same day.
	ErrAlreadyCompleted = errors.New("daily quiz already completed")
	// ErrAlreadyHelpful is returned when an answer has already been marked helpful.
	ErrAlreadyHelpful = errors.New("answer already marked helpful")
	// ErrConflict signals a uniqueness violation in the store.
	ErrConflict = errors.New("conflict")
	// ErrRemoteFailure marks any store or procedure failure.
	ErrRemoteFailure = errors.New("backend unavailable")
	// ErrInvalidInput is returned for empty or malformed input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is the generic store miss.
	ErrNotFound = errors.New("not found")
	// ErrPostNotFound indicates an unknown post id.
	ErrPostNotFound = fmt.Errorf("post %w", ErrNotFound)
	// ErrAnswerNotFound indicates an unknown answer id.
	ErrAnswerNotFound = fmt.Errorf("answer %w", ErrNotFound)
	// ErrStatsNotFound indicates a user without a stats row.
	ErrStatsNotFound = fmt.Errorf("stats %w", ErrNotFound)
	// ErrUserNotFound indicates an unknown account.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrAttemptNotFound indicates no quiz attempt is in progress for the user.
	ErrAttemptNotFound = fmt.Errorf("quiz attempt %w", ErrNotFound)

	// ErrNoPendingAnswer is returned when advancing without selecting an option.
	ErrNoPendingAnswer = errors.New("select an option first")
	// ErrInvalidOption indicates an option index outside the question.
	ErrInvalidOption = errors.New("option out of range")
	// ErrQuizFinished is returned for moves on a completed attempt.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrMalformedQuiz marks quiz content or an attempt that does not fit its questions.
	ErrMalformedQuiz = errors.New("malformed quiz")

	// ErrInvalidCredentials is returned by sign-in on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned by sign-up for an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned for malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// RemoteError wraps a failed store call. It matches ErrRemoteFailure and the cause.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Op + ": " + ErrRemoteFailure.Error() + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteFailure }

// Remote wraps err as a RemoteError unless it is nil or already a domain error
// that callers branch on.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// IsDomain reports whether err carries one of the sentinel errors above.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrConflict, ErrAlreadyCompleted, ErrAlreadyHelpful,
		ErrRemoteFailure, ErrEmailTaken, ErrUnauthenticated, ErrForbidden, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
