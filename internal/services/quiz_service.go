package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uninotes/quiz-service/internal/repositories"
)

type quizService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger) QuizService {
	return &quizService{
		repo:   repo,
		logger: logger,
	}
}

// GetForTaking returns the quiz as the taking UI is allowed to see it:
// questions and options in sequence order, correctness flags stripped.
// Visibility follows the moderation rule: owners see their quiz at any
// status, everyone else only when approved.
func (s *quizService) GetForTaking(ctx context.Context, quizID uint, userID string) (*QuizView, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.VisibleTo(userID) {
		return nil, ErrQuizNotFound
	}

	view := &QuizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   make([]QuestionView, 0, len(quiz.Questions)),
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
		view.Questions = append(view.Questions, qv)
	}

	return view, nil
}
