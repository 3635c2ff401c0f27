// Package memory is an in-memory Repository used by service and handler
// tests. It enforces the same uniqueness rules the postgres schema does and
// reports violations with the same sentinel errors, so the service layer's
// conflict handling is exercised without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	mu sync.Mutex

	users    map[string]*models.User
	quizzes  map[uint]*models.Quiz
	attempts map[uint]*models.QuizAttempt
	answers  map[uint]*models.AttemptAnswer

	nextAttemptID uint
	nextAnswerID  uint
}

func NewRepository() *Repository {
	return &Repository{
		users:         make(map[string]*models.User),
		quizzes:       make(map[uint]*models.Quiz),
		attempts:      make(map[uint]*models.QuizAttempt),
		answers:       make(map[uint]*models.AttemptAnswer),
		nextAttemptID: 1,
		nextAnswerID:  1,
	}
}

func (r *Repository) Quiz() repositories.QuizRepository       { return (*quizStore)(r) }
func (r *Repository) Attempt() repositories.AttemptRepository { return (*attemptStore)(r) }
func (r *Repository) User() repositories.UserRepository       { return (*userStore)(r) }

// ===== SEEDING (test setup) =====

func (r *Repository) AddUser(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *Repository) AddQuiz(quiz *models.Quiz) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[quiz.ID] = quiz
}

// ===== QUIZ =====

type quizStore Repository

func (s *quizStore) GetByID(_ context.Context, id uint) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *quiz
	copied.Questions = nil
	return &copied, nil
}

func (s *quizStore) GetByIDWithQuestions(_ context.Context, id uint) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *quiz
	copied.Questions = make([]models.Question, len(quiz.Questions))
	copy(copied.Questions, quiz.Questions)
	sort.Slice(copied.Questions, func(i, j int) bool {
		return copied.Questions[i].Sequence < copied.Questions[j].Sequence
	})
	return &copied, nil
}

func (s *quizStore) CountQuestions(_ context.Context, quizID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return len(quiz.Questions), nil
}

// ===== USER =====

type userStore Repository

func (s *userStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

// ===== ATTEMPT =====

type attemptStore Repository

func (s *attemptStore) Create(_ context.Context, attempt *models.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == attempt.UserID &&
			existing.QuizID == attempt.QuizID &&
			existing.CompletedAt == nil {
			return gorm.ErrDuplicatedKey
		}
	}
	attempt.ID = s.nextAttemptID
	s.nextAttemptID++
	copied := *attempt
	s.attempts[attempt.ID] = &copied
	return nil
}

func (s *attemptStore) GetByID(_ context.Context, id uint) (*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	copied.Answers = nil
	return &copied, nil
}

func (s *attemptStore) GetByIDWithAnswers(_ context.Context, id uint) (*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	copied.Answers = s.answersForLocked(id)
	return &copied, nil
}

func (s *attemptStore) GetOpenAttempt(_ context.Context, userID string, quizID uint) (*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, attempt := range s.attempts {
		if attempt.UserID == userID && attempt.QuizID == quizID && attempt.CompletedAt == nil {
			copied := *attempt
			copied.Answers = s.answersForLocked(attempt.ID)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *attemptStore) CreateAnswer(_ context.Context, answer *models.AttemptAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers {
		if existing.AttemptID == answer.AttemptID && existing.QuestionID == answer.QuestionID {
			return gorm.ErrDuplicatedKey
		}
	}
	answer.ID = s.nextAnswerID
	s.nextAnswerID++
	copied := *answer
	s.answers[answer.ID] = &copied
	return nil
}

func (s *attemptStore) GetAnswers(_ context.Context, attemptID uint) ([]*models.AttemptAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := s.answersForLocked(attemptID)
	out := make([]*models.AttemptAnswer, len(answers))
	for i := range answers {
		a := answers[i]
		out[i] = &a
	}
	return out, nil
}

func (s *attemptStore) CountAnswers(_ context.Context, attemptID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, answer := range s.answers {
		if answer.AttemptID == attemptID {
			count++
		}
	}
	return count, nil
}

func (s *attemptStore) CountCorrectAnswers(_ context.Context, attemptID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, answer := range s.answers {
		if answer.AttemptID == attemptID && answer.IsCorrect {
			count++
		}
	}
	return count, nil
}

func (s *attemptStore) Complete(_ context.Context, id uint, completedAt time.Time, score int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok || attempt.CompletedAt != nil {
		return 0, nil
	}
	t := completedAt
	attempt.CompletedAt = &t
	attempt.Score = score
	return 1, nil
}

func (s *attemptStore) GetCompletedAttempts(_ context.Context, userID string, quizID uint) ([]*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var attempts []*models.QuizAttempt
	for _, attempt := range s.attempts {
		if attempt.UserID == userID && attempt.QuizID == quizID && attempt.CompletedAt != nil {
			copied := *attempt
			attempts = append(attempts, &copied)
		}
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.After(*attempts[j].CompletedAt)
	})
	return attempts, nil
}

func (s *attemptStore) GetBestAttempt(_ context.Context, userID string, quizID uint) (*repositories.BestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.QuizAttempt
	for _, attempt := range s.attempts {
		if attempt.UserID != userID || attempt.QuizID != quizID || attempt.CompletedAt == nil {
			continue
		}
		if best == nil || attempt.Score > best.Score {
			best = attempt
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &repositories.BestAttempt{
		Score:          best.Score,
		TotalQuestions: best.TotalQuestions,
	}, nil
}

func (s *attemptStore) answersForLocked(attemptID uint) []models.AttemptAnswer {
	var answers []models.AttemptAnswer
	for _, answer := range s.answers {
		if answer.AttemptID == attemptID {
			answers = append(answers, *answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].ID < answers[j].ID
	})
	return answers
}
