package services

import (
	"errors"
)

// ===== COMMON SERVICE ERRORS =====
//
// All of these are expected, caller-recoverable conditions. The handler layer
// translates them into HTTP statuses; none of them should ever crash the
// process. Transient persistence failures are the only retriable class and
// are passed through wrapped, not converted to one of these sentinels.

var (
	// Generic errors
	ErrNotFound      = errors.New("resource not found")
	ErrForbidden     = errors.New("forbidden - insufficient permissions")
	ErrInternalError = errors.New("internal server error")

	// Quiz/question lookup and visibility
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found in quiz")

	// Attempt lifecycle errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptNotActive        = errors.New("attempt is already completed")
	ErrDuplicateAnswer         = errors.New("question already answered in this attempt")
	ErrIncompleteAttempt       = errors.New("not all questions answered")
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
	ErrAttemptNotCompleted     = errors.New("attempt is not completed yet")
)

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsConflict checks if error represents a state conflict the caller should
// not retry blindly
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptNotActive) ||
		errors.Is(err, ErrDuplicateAnswer) ||
		errors.Is(err, ErrAttemptAlreadyCompleted) ||
		errors.Is(err, ErrAttemptNotCompleted)
}
