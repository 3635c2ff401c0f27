package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninotes/quiz-service/internal/cache"
	"github.com/uninotes/quiz-service/internal/events"
	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/repositories/memory"
	"github.com/uninotes/quiz-service/internal/utils"
)

const (
	testUserID   = "user-1"
	testAuthorID = "author-1"
)

func newTestService(t *testing.T) (AttemptService, *memory.Repository, *events.MockEventPublisher) {
	t.Helper()

	repo := memory.NewRepository()
	repo.AddUser(&models.User{ID: testUserID, FullName: "Test Student"})
	repo.AddUser(&models.User{ID: testAuthorID, FullName: "Test Author"})

	publisher := events.NewMockEventPublisher()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAttemptService(repo, logger, utils.NewValidator(), cache.NoopCache{}, publisher)
	return svc, repo, publisher
}

// seedQuiz adds an approved three-question quiz: one single choice, one
// true/false, one multi choice with two correct options.
func seedQuiz(repo *memory.Repository) *models.Quiz {
	justification := "TCP retransmits lost segments, UDP does not."
	quiz := &models.Quiz{
		ID:        1,
		ChapterID: 7,
		Title:     "Transport Layer Basics",
		Status:    models.QuizStatusApproved,
		CreatedBy: testAuthorID,
		Questions: []models.Question{
			{
				ID: 10, QuizID: 1, Sequence: 1, Type: models.SingleChoice,
				Text:          "Which protocol guarantees delivery?",
				Justification: &justification,
				Options: []models.Option{
					{ID: 101, QuestionID: 10, Sequence: 1, Text: "TCP", IsCorrect: true},
					{ID: 102, QuestionID: 10, Sequence: 2, Text: "UDP"},
				},
			},
			{
				ID: 20, QuizID: 1, Sequence: 2, Type: models.TrueFalse,
				Text: "UDP is connectionless.",
				Options: []models.Option{
					{ID: 201, QuestionID: 20, Sequence: 1, Text: "صح", IsCorrect: true},
					{ID: 202, QuestionID: 20, Sequence: 2, Text: "خطأ"},
				},
			},
			{
				ID: 30, QuizID: 1, Sequence: 3, Type: models.MultiChoice,
				Text: "Which of these are transport protocols?",
				Options: []models.Option{
					{ID: 301, QuestionID: 30, Sequence: 1, Text: "TCP", IsCorrect: true},
					{ID: 302, QuestionID: 30, Sequence: 2, Text: "IP"},
					{ID: 303, QuestionID: 30, Sequence: 3, Text: "UDP", IsCorrect: true},
				},
			},
		},
	}
	repo.AddQuiz(quiz)
	return quiz
}

// answerAll submits the given selections in question order.
func answerAll(t *testing.T, svc AttemptService, attemptID uint, selections map[uint][]uint) {
	t.Helper()
	for questionID, optionIDs := range selections {
		_, err := svc.SubmitAnswer(context.Background(), attemptID, &SubmitAnswerRequest{
			QuestionID:        questionID,
			SelectedOptionIDs: optionIDs,
		}, testUserID)
		require.NoError(t, err)
	}
}

var allCorrect = map[uint][]uint{10: {101}, 20: {201}, 30: {301, 303}}

func TestStart_CreatesFreshAttempt(t *testing.T) {
	svc, repo, publisher := newTestService(t)
	seedQuiz(repo)

	attempt, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	assert.False(t, attempt.Resumed)
	assert.Equal(t, 3, attempt.TotalQuestions)
	assert.Nil(t, attempt.CompletedAt)
	assert.Len(t, attempt.Questions, 3)
	assert.Empty(t, attempt.Answers)

	// Questions come in sequence order with correctness stripped
	assert.Equal(t, uint(10), attempt.Questions[0].ID)
	assert.Equal(t, uint(30), attempt.Questions[2].ID)

	started := publisher.EventsOfType(events.EventAttemptStarted)
	require.Len(t, started, 1)
}

func TestStart_ResumesOpenAttempt(t *testing.T) {
	svc, repo, publisher := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	first, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, first.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{102},
	}, testUserID)
	require.NoError(t, err)

	second, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Answers, 1)
	assert.Equal(t, uint(10), second.Answers[0].QuestionID)
	assert.Equal(t, []uint{102}, second.Answers[0].SelectedOptionIDs)
	assert.False(t, second.Answers[0].IsCorrect)

	// Resuming publishes nothing new
	assert.Len(t, publisher.EventsOfType(events.EventAttemptStarted), 1)
}

func TestStart_QuizVisibility(t *testing.T) {
	svc, repo, _ := newTestService(t)
	quiz := seedQuiz(repo)
	quiz.Status = models.QuizStatusPending
	ctx := context.Background()

	_, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	assert.ErrorIs(t, err, ErrQuizNotFound)

	// The contributor can take their own unapproved quiz
	_, err = svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testAuthorID)
	assert.NoError(t, err)
}

func TestStart_RejectsBannedAndUnknownUsers(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	repo.AddUser(&models.User{ID: "banned-1", FullName: "Banned User", IsBanned: true})
	ctx := context.Background()

	_, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "banned-1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "nobody")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStart_UnknownQuiz(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: 99}, testUserID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitAnswer_Verdicts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	// Correct single choice reveals the verdict and justification
	result, err := svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{101},
	}, testUserID)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, []uint{101}, result.CorrectOptionIDs)
	require.NotNil(t, result.Justification)

	// Multi choice demands the exact correct set; a subset is wrong
	result, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        30,
		SelectedOptionIDs: []uint{301},
	}, testUserID)
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, []uint{301, 303}, result.CorrectOptionIDs)
}

func TestSubmitAnswer_OutOfOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        30,
		SelectedOptionIDs: []uint{301, 303},
	}, testUserID)
	assert.NoError(t, err)
}

func TestSubmitAnswer_DuplicateKeepsFirstVerdict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{102},
	}, testUserID)
	require.NoError(t, err)

	// Second submission is rejected even with a different, correct selection
	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{101},
	}, testUserID)
	assert.ErrorIs(t, err, ErrDuplicateAnswer)

	resumed, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)
	require.Len(t, resumed.Answers, 1)
	assert.Equal(t, []uint{102}, resumed.Answers[0].SelectedOptionIDs)
	assert.False(t, resumed.Answers[0].IsCorrect)
}

func TestSubmitAnswer_UnknownQuestion(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        999,
		SelectedOptionIDs: []uint{101},
	}, testUserID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestSubmitAnswer_ForeignAttemptLooksMissing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{101},
	}, testAuthorID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestComplete_RequiresAllAnswers(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, attempt.ID, testUserID)
	assert.ErrorIs(t, err, ErrIncompleteAttempt)

	answerAll(t, svc, attempt.ID, map[uint][]uint{10: {101}, 20: {202}})
	_, err = svc.Complete(ctx, attempt.ID, testUserID)
	assert.ErrorIs(t, err, ErrIncompleteAttempt)
}

func TestComplete_ScoresAndPublishes(t *testing.T) {
	svc, repo, publisher := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	// Two right, one wrong
	answerAll(t, svc, attempt.ID, map[uint][]uint{10: {101}, 20: {201}, 30: {302}})

	result, err := svc.Complete(ctx, attempt.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, result.AttemptID)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)

	completed := publisher.EventsOfType(events.EventAttemptCompleted)
	require.Len(t, completed, 1)
	payload, ok := completed[0].Data.(events.AttemptCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, payload.Score)
}

func TestComplete_Twice(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)
	answerAll(t, svc, attempt.ID, allCorrect)

	_, err = svc.Complete(ctx, attempt.ID, testUserID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, attempt.ID, testUserID)
	assert.ErrorIs(t, err, ErrAttemptAlreadyCompleted)

	// A completed attempt accepts no further answers either
	_, err = svc.SubmitAnswer(ctx, attempt.ID, &SubmitAnswerRequest{
		QuestionID:        10,
		SelectedOptionIDs: []uint{101},
	}, testUserID)
	assert.ErrorIs(t, err, ErrAttemptNotActive)
}

func TestReattempt_IndependentAndBestKept(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	// First attempt: perfect score
	first, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)
	answerAll(t, svc, first.ID, allCorrect)
	_, err = svc.Complete(ctx, first.ID, testUserID)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	// Second attempt: starts empty, scores lower
	second, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.Resumed)
	assert.Empty(t, second.Answers)

	answerAll(t, svc, second.ID, map[uint][]uint{10: {102}, 20: {202}, 30: {302}})
	result, err := svc.Complete(ctx, second.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)

	// The lower re-attempt does not displace the best score
	best, err := svc.GetBestAttempt(ctx, 1, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 3, best.Score)
	assert.Equal(t, 3, best.TotalQuestions)

	history, err := svc.GetHistory(ctx, 1, testUserID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
}

func TestGetBestAttempt_NoneCompleted(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)

	_, err := svc.GetBestAttempt(context.Background(), 1, testUserID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestGetOpenAttempt(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	_, err := svc.GetOpenAttempt(ctx, 1, testUserID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	started, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	open, err := svc.GetOpenAttempt(ctx, 1, testUserID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, open.ID)
	assert.True(t, open.Resumed)
}

func TestGetReview(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedQuiz(repo)
	ctx := context.Background()

	attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, testUserID)
	require.NoError(t, err)

	_, err = svc.GetReview(ctx, attempt.ID, testUserID)
	assert.ErrorIs(t, err, ErrAttemptNotCompleted)

	answerAll(t, svc, attempt.ID, map[uint][]uint{10: {101}, 20: {202}, 30: {301, 303}})
	_, err = svc.Complete(ctx, attempt.ID, testUserID)
	require.NoError(t, err)

	review, err := svc.GetReview(ctx, attempt.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, review.Score)
	require.Len(t, review.Questions, 3)

	// Review reveals correctness per option and the user's own selection
	q1 := review.Questions[0]
	assert.Equal(t, uint(10), q1.ID)
	assert.True(t, q1.IsCorrect)
	assert.Equal(t, []uint{101}, q1.SelectedOptionIDs)
	require.NotNil(t, q1.Justification)
	assert.True(t, q1.Options[0].IsCorrect)
	assert.False(t, q1.Options[1].IsCorrect)

	q2 := review.Questions[1]
	assert.False(t, q2.IsCorrect)
	assert.Equal(t, []uint{202}, q2.SelectedOptionIDs)

	// Other users cannot read the review
	_, err = svc.GetReview(ctx, attempt.ID, testAuthorID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}
