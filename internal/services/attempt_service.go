package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uninotes/quiz-service/internal/cache"
	"github.com/uninotes/quiz-service/internal/evaluator"
	"github.com/uninotes/quiz-service/internal/events"
	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"github.com/uninotes/quiz-service/internal/utils"
	"gorm.io/datatypes"
)

const bestAttemptCacheTTL = time.Hour

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
}

func NewAttemptService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheService,
		publisher: publisher,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start returns the user's open attempt on the quiz if one exists, otherwise
// creates a fresh one. Concurrent calls converge on a single attempt: the
// loser of the insert race hits the partial unique index and re-reads the
// winner's row.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsBanned {
		return nil, ErrForbidden
	}

	quiz, err := s.getVisibleQuiz(ctx, req.QuizID, userID)
	if err != nil {
		return nil, err
	}

	if open, err := s.repo.Attempt().GetOpenAttempt(ctx, userID, quiz.ID); err == nil {
		s.logger.Info("Resuming existing attempt",
			"attempt_id", open.ID,
			"quiz_id", quiz.ID,
			"user_id", userID)
		return s.buildAttemptResponse(open, quiz, true), nil
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up open attempt: %w", err)
	}

	attempt := &models.QuizAttempt{
		UserID:         userID,
		QuizID:         quiz.ID,
		TotalQuestions: len(quiz.Questions),
		StartedAt:      time.Now().UTC(),
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			// Lost the race against a concurrent Start; use the winner's row.
			open, getErr := s.repo.Attempt().GetOpenAttempt(ctx, userID, quiz.ID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load concurrently created attempt: %w", getErr)
			}
			return s.buildAttemptResponse(open, quiz, true), nil
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"user_id", userID,
		"total_questions", attempt.TotalQuestions)

	s.publishEvent(ctx, events.NewAttemptEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		QuizID:    quiz.ID,
		UserID:    userID,
	}))

	return s.buildAttemptResponse(attempt, quiz, false), nil
}

// SubmitAnswer records the user's selection for one question. Answers are
// insert-only: a second submission for the same question fails with
// ErrDuplicateAnswer and the stored verdict stays untouched. Out-of-order
// answering is allowed.
func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, ErrAttemptNotActive
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	question := quiz.QuestionByID(req.QuestionID)
	if question == nil {
		return nil, ErrQuestionNotFound
	}

	correctIDs := question.CorrectOptionIDs()
	isCorrect := evaluator.IsCorrect(req.SelectedOptionIDs, correctIDs, question.Type)

	answer := &models.AttemptAnswer{
		AttemptID:         attempt.ID,
		QuestionID:        question.ID,
		SelectedOptionIDs: datatypes.NewJSONSlice(req.SelectedOptionIDs),
		IsCorrect:         isCorrect,
		AnsweredAt:        time.Now().UTC(),
	}

	if err := s.repo.Attempt().CreateAnswer(ctx, answer); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateAnswer
		}
		return nil, fmt.Errorf("failed to persist answer: %w", err)
	}

	s.logger.Info("Answer submitted",
		"attempt_id", attempt.ID,
		"question_id", question.ID,
		"is_correct", isCorrect)

	return &SubmitAnswerResult{
		QuestionID:       question.ID,
		IsCorrect:        isCorrect,
		CorrectOptionIDs: correctIDs,
		Justification:    question.Justification,
	}, nil
}

// Complete finalizes the attempt once every question has an answer. The score
// is the count of correct answers, frozen at this point; completing an
// already-completed attempt fails rather than re-scoring, so later edits to
// the quiz can never shift a recorded result.
func (s *attemptService) Complete(ctx context.Context, attemptID uint, userID string) (*CompleteAttemptResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, ErrAttemptAlreadyCompleted
	}

	answered, err := s.repo.Attempt().CountAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	if answered < attempt.TotalQuestions {
		return nil, ErrIncompleteAttempt
	}

	score, err := s.repo.Attempt().CountCorrectAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count correct answers: %w", err)
	}

	completedAt := time.Now().UTC()
	rows, err := s.repo.Attempt().Complete(ctx, attempt.ID, completedAt, score)
	if err != nil {
		return nil, fmt.Errorf("failed to complete attempt: %w", err)
	}
	if rows == 0 {
		// A concurrent Complete won; do not re-score.
		return nil, ErrAttemptAlreadyCompleted
	}

	s.logger.Info("Attempt completed",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"user_id", userID,
		"score", score,
		"total_questions", attempt.TotalQuestions)

	if err := s.cache.Delete(ctx, cache.BestAttemptKey(userID, attempt.QuizID)); err != nil {
		s.logger.Warn("failed to invalidate best attempt cache",
			"attempt_id", attempt.ID, "error", err)
	}

	s.publishEvent(ctx, events.NewAttemptEvent(events.EventAttemptCompleted, events.AttemptCompletedEvent{
		AttemptID:      attempt.ID,
		QuizID:         attempt.QuizID,
		UserID:         userID,
		Score:          score,
		TotalQuestions: attempt.TotalQuestions,
		CompletedAt:    completedAt,
	}))

	return &CompleteAttemptResult{
		AttemptID:      attempt.ID,
		Score:          score,
		TotalQuestions: attempt.TotalQuestions,
	}, nil
}

// ===== READ OPERATIONS =====

func (s *attemptService) GetOpenAttempt(ctx context.Context, quizID uint, userID string) (*AttemptResponse, error) {
	quiz, err := s.getVisibleQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetOpenAttempt(ctx, userID, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get open attempt: %w", err)
	}

	return s.buildAttemptResponse(attempt, quiz, true), nil
}

func (s *attemptService) GetBestAttempt(ctx context.Context, quizID uint, userID string) (*repositories.BestAttempt, error) {
	key := cache.BestAttemptKey(userID, quizID)

	var cached repositories.BestAttempt
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	best, err := s.repo.Attempt().GetBestAttempt(ctx, userID, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get best attempt: %w", err)
	}

	if err := s.cache.Set(ctx, key, best, bestAttemptCacheTTL); err != nil {
		s.logger.Warn("failed to cache best attempt", "key", key, "error", err)
	}

	return best, nil
}

func (s *attemptService) GetHistory(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error) {
	attempts, err := s.repo.Attempt().GetCompletedAttempts(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed attempts: %w", err)
	}
	return attempts, nil
}

// GetReview builds the post-completion review: every question with the full
// option set, correctness flags and justification revealed, alongside the
// user's own stored selections.
func (s *attemptService) GetReview(ctx context.Context, attemptID uint, userID string) (*AttemptReview, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	if !attempt.IsCompleted() {
		return nil, ErrAttemptNotCompleted
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	answersByQuestion := make(map[uint]*models.AttemptAnswer, len(attempt.Answers))
	for i := range attempt.Answers {
		answersByQuestion[attempt.Answers[i].QuestionID] = &attempt.Answers[i]
	}

	review := &AttemptReview{
		AttemptID:      attempt.ID,
		QuizID:         quiz.ID,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		CompletedAt:    *attempt.CompletedAt,
		Questions:      make([]ReviewQuestion, 0, len(quiz.Questions)),
	}

	for _, q := range quiz.Questions {
		rq := ReviewQuestion{
			ID:            q.ID,
			Sequence:      q.Sequence,
			Type:          q.Type,
			Text:          q.Text,
			Justification: q.Justification,
			Options:       make([]ReviewOption, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			rq.Options = append(rq.Options, ReviewOption{
				ID:        opt.ID,
				Sequence:  opt.Sequence,
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
			})
		}
		if answer, ok := answersByQuestion[q.ID]; ok {
			rq.SelectedOptionIDs = answer.SelectedOptionIDs
			rq.IsCorrect = answer.IsCorrect
		}
		review.Questions = append(review.Questions, rq)
	}

	return review, nil
}

// ===== HELPERS =====

func (s *attemptService) getVisibleQuiz(ctx context.Context, quizID uint, userID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	// Hidden quizzes look identical to missing ones from the outside.
	if !quiz.VisibleTo(userID) {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, userID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *attemptService) buildAttemptResponse(attempt *models.QuizAttempt, quiz *models.Quiz, resumed bool) *AttemptResponse {
	resp := &AttemptResponse{
		ID:             attempt.ID,
		QuizID:         attempt.QuizID,
		UserID:         attempt.UserID,
		TotalQuestions: attempt.TotalQuestions,
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
		Score:          attempt.Score,
		Resumed:        resumed,
		Questions:      make([]QuestionView, 0, len(quiz.Questions)),
		Answers:        make([]AnswerView, 0, len(attempt.Answers)),
	}

	for _, q := range quiz.Questions {
		qv := QuestionView{
			ID:       q.ID,
			Sequence: q.Sequence,
			Type:     q.Type,
			Text:     q.Text,
			Options:  make([]OptionView, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			qv.Options = append(qv.Options, OptionView{
				ID:       opt.ID,
				Sequence: opt.Sequence,
				Text:     opt.Text,
			})
		}
		resp.Questions = append(resp.Questions, qv)
	}

	for _, answer := range attempt.Answers {
		resp.Answers = append(resp.Answers, AnswerView{
			QuestionID:        answer.QuestionID,
			SelectedOptionIDs: answer.SelectedOptionIDs,
			IsCorrect:         answer.IsCorrect,
		})
	}

	return resp
}

func (s *attemptService) publishEvent(ctx context.Context, event *events.AttemptEvent) {
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		// Event delivery is best-effort; the attempt record is authoritative.
		s.logger.Error("Failed to publish attempt event",
			"event_type", event.Type, "error", err)
	}
}
