package repositories

import (
	"context"

	"github.com/uninotes/quiz-service/internal/models"
)

// QuizRepository is the read-only view of the content service's data. The
// attempt engine never writes quizzes, questions or options.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)

	// GetByIDWithQuestions loads the quiz with questions and options ordered
	// by their sequence columns.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)

	CountQuestions(ctx context.Context, quizID uint) (int, error)
}
