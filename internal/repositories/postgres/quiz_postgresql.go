package postgres

import (
	"context"

	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.sequence ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.sequence ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) CountQuestions(ctx context.Context, quizID uint) (int, error) {
	var count int64
	if err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
