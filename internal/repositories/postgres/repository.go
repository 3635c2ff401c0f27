package postgres

import (
	"context"
	"fmt"

	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository wraps a gorm connection as a Repository. The connection must
// be opened with TranslateError enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Quiz() repositories.QuizRepository {
	return NewQuizPostgreSQL(r.db)
}

func (r *gormRepository) Attempt() repositories.AttemptRepository {
	return NewAttemptPostgreSQL(r.db)
}

func (r *gormRepository) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *gormRepository) Begin(ctx context.Context) (repositories.Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormRepository{db: tx}, nil
}

func (r *gormRepository) Commit(ctx context.Context) error {
	return r.db.Commit().Error
}

func (r *gormRepository) Rollback(ctx context.Context) error {
	return r.db.Rollback().Error
}

// Migrate creates the attempt engine's own tables. Quiz/question/option and
// user tables belong to the content and accounts services; they are migrated
// here as well only to support standalone development environments.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.QuizAttempt{},
		&models.AttemptAnswer{},
	)
}
