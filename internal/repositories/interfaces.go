package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates entity repositories behind one handle so services can
// run several operations against the same connection or transaction.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
	User() UserRepository
}

// TransactionRepository is implemented by repositories that can open a
// transaction scope. Begin returns a Repository bound to the transaction.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (Repository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation.
// The attempt engine leans on this: concurrent Start and double SubmitAnswer
// are resolved by the database constraints, not by application locks.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
