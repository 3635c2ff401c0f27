package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/uninotes/quiz-service/internal/cache"
	"github.com/uninotes/quiz-service/internal/events"
	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"github.com/uninotes/quiz-service/internal/utils"
)

// ===== REQUEST / RESPONSE TYPES =====

type StartAttemptRequest struct {
	QuizID uint `json:"quiz_id" validate:"required"`
}

type SubmitAnswerRequest struct {
	QuestionID        uint   `json:"question_id" validate:"required"`
	SelectedOptionIDs []uint `json:"option_ids"`
}

// SubmitAnswerResult carries the authoritative verdict back to the caller so
// the UI can show feedback without a second round trip. Correct option ids
// and the justification are only revealed here, after the answer is locked in.
type SubmitAnswerResult struct {
	QuestionID       uint    `json:"question_id"`
	IsCorrect        bool    `json:"is_correct"`
	CorrectOptionIDs []uint  `json:"correct_option_ids"`
	Justification    *string `json:"justification,omitempty"`
}

type CompleteAttemptResult struct {
	AttemptID      uint `json:"attempt_id"`
	Score          int  `json:"score"`
	TotalQuestions int  `json:"total_questions"`
}

// OptionView is an option as shown while taking the quiz: no correctness flag.
type OptionView struct {
	ID       uint   `json:"id"`
	Sequence int    `json:"sequence"`
	Text     string `json:"text"`
}

type QuestionView struct {
	ID       uint                `json:"id"`
	Sequence int                 `json:"sequence"`
	Type     models.QuestionType `json:"type"`
	Text     string              `json:"text"`
	Options  []OptionView        `json:"options"`
}

type QuizView struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Questions   []QuestionView `json:"questions"`
}

// AnswerView mirrors a stored answer for resume seeding.
type AnswerView struct {
	QuestionID        uint   `json:"question_id"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	IsCorrect         bool   `json:"is_correct"`
}

// AttemptResponse is an attempt plus the sanitized questions needed to drive
// the taking UI and any answers already recorded (resume).
type AttemptResponse struct {
	ID             uint           `json:"id"`
	QuizID         uint           `json:"quiz_id"`
	UserID         string         `json:"user_id"`
	TotalQuestions int            `json:"total_questions"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Score          int            `json:"score"`
	Resumed        bool           `json:"resumed"`
	Questions      []QuestionView `json:"questions"`
	Answers        []AnswerView   `json:"answers"`
}

// ReviewOption includes the correctness flag: review views are only built for
// completed attempts, where revealing it is allowed.
type ReviewOption struct {
	ID        uint   `json:"id"`
	Sequence  int    `json:"sequence"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type ReviewQuestion struct {
	ID                uint                `json:"id"`
	Sequence          int                 `json:"sequence"`
	Type              models.QuestionType `json:"type"`
	Text              string              `json:"text"`
	Justification     *string             `json:"justification,omitempty"`
	Options           []ReviewOption      `json:"options"`
	SelectedOptionIDs []uint              `json:"selected_option_ids"`
	IsCorrect         bool                `json:"is_correct"`
}

type AttemptReview struct {
	AttemptID      uint             `json:"attempt_id"`
	QuizID         uint             `json:"quiz_id"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	CompletedAt    time.Time        `json:"completed_at"`
	Questions      []ReviewQuestion `json:"questions"`
}

// ===== SERVICE INTERFACES =====

// AttemptService owns the attempt state machine: OPEN --submit answer-->
// OPEN --complete--> COMPLETED. Start is the only way into OPEN and is
// idempotent while an open attempt exists.
type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResult, error)
	Complete(ctx context.Context, attemptID uint, userID string) (*CompleteAttemptResult, error)

	GetOpenAttempt(ctx context.Context, quizID uint, userID string) (*AttemptResponse, error)
	GetBestAttempt(ctx context.Context, quizID uint, userID string) (*repositories.BestAttempt, error)
	GetHistory(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error)
	GetReview(ctx context.Context, attemptID uint, userID string) (*AttemptReview, error)
}

// QuizService is the sanitized read path for the taking UI.
type QuizService interface {
	GetForTaking(ctx context.Context, quizID uint, userID string) (*QuizView, error)
}

// ExportService renders attempt results as spreadsheets.
type ExportService interface {
	ExportAttemptHistory(ctx context.Context, quizID uint, userID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Attempt() AttemptService
	Quiz() QuizService
	Export() ExportService
}

type serviceManager struct {
	attempt AttemptService
	quiz    QuizService
	export  ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
) ServiceManager {
	attempt := NewAttemptService(repo, logger, validator, cacheService, publisher)
	return &serviceManager{
		attempt: attempt,
		quiz:    NewQuizService(repo, logger),
		export:  NewExportService(repo, logger),
	}
}

func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Export() ExportService   { return m.export }
