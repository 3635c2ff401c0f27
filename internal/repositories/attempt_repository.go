package repositories

import (
	"context"
	"time"

	"github.com/uninotes/quiz-service/internal/models"
)

// BestAttempt is the aggregator's projection of a user's strongest completed
// attempt on a quiz.
type BestAttempt struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"total_questions"`
}

// AttemptRepository persists attempts and their immutable answers.
//
// Two invariants live in the schema rather than here:
//   - at most one open attempt per (user_id, quiz_id), via a partial unique
//     index over rows with completed_at IS NULL;
//   - at most one answer per (attempt_id, question_id), via a unique index.
//
// Create and CreateAnswer surface violations as duplicate-key errors
// (IsDuplicateKeyError) for the service layer to translate.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error)

	// GetOpenAttempt returns the single in-progress attempt for the pair, or
	// a not-found error when none exists.
	GetOpenAttempt(ctx context.Context, userID string, quizID uint) (*models.QuizAttempt, error)

	CreateAnswer(ctx context.Context, answer *models.AttemptAnswer) error
	GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error)
	CountAnswers(ctx context.Context, attemptID uint) (int, error)
	CountCorrectAnswers(ctx context.Context, attemptID uint) (int, error)

	// Complete finalizes the attempt only if it is still open. It returns the
	// number of rows updated; zero means another caller completed it first.
	Complete(ctx context.Context, id uint, completedAt time.Time, score int) (int64, error)

	GetCompletedAttempts(ctx context.Context, userID string, quizID uint) ([]*models.QuizAttempt, error)
	GetBestAttempt(ctx context.Context, userID string, quizID uint) (*BestAttempt, error)
}
