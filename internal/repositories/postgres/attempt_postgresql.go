package postgres

import (
	"context"
	"time"

	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("Answers").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetOpenAttempt(ctx context.Context, userID string, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("Answers").
		Where("user_id = ? AND quiz_id = ? AND completed_at IS NULL", userID, quizID).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) CreateAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	return a.db.WithContext(ctx).Create(answer).Error
}

func (a *AttemptPostgreSQL) GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error) {
	var answers []*models.AttemptAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("answered_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AttemptPostgreSQL) CountAnswers(ctx context.Context, attemptID uint) (int, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (a *AttemptPostgreSQL) CountCorrectAnswers(ctx context.Context, attemptID uint) (int, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("attempt_id = ? AND is_correct = true", attemptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Complete is a conditional update: the WHERE clause only matches while the
// attempt is still open, so the second of two racing completions updates
// zero rows and the caller reports already-completed.
func (a *AttemptPostgreSQL) Complete(ctx context.Context, id uint, completedAt time.Time, score int) (int64, error) {
	result := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"completed_at": completedAt,
			"score":        score,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (a *AttemptPostgreSQL) GetCompletedAttempts(ctx context.Context, userID string, quizID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND completed_at IS NOT NULL", userID, quizID).
		Order("completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetBestAttempt(ctx context.Context, userID string, quizID uint) (*repositories.BestAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND completed_at IS NOT NULL", userID, quizID).
		Order("score DESC").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &repositories.BestAttempt{
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
	}, nil
}
