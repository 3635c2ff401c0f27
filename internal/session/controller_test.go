package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/services"
)

// fakeClient scripts the attempt service: answers evaluate correct when the
// lowest selected option id is even, and failures can be injected per call.
type fakeClient struct {
	submitErr   error
	completeErr error

	submitted []services.SubmitAnswerRequest
	completes int
}

func (f *fakeClient) SubmitAnswer(_ context.Context, _ uint, req *services.SubmitAnswerRequest, _ string) (*services.SubmitAnswerResult, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, *req)
	return &services.SubmitAnswerResult{
		QuestionID:       req.QuestionID,
		IsCorrect:        req.SelectedOptionIDs[0]%2 == 0,
		CorrectOptionIDs: []uint{2},
	}, nil
}

func (f *fakeClient) Complete(_ context.Context, attemptID uint, _ string) (*services.CompleteAttemptResult, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.completes++
	return &services.CompleteAttemptResult{
		AttemptID:      attemptID,
		Score:          f.completes,
		TotalQuestions: 2,
	}, nil
}

func testAttempt() *services.AttemptResponse {
	return &services.AttemptResponse{
		ID:             42,
		QuizID:         1,
		UserID:         "user-1",
		TotalQuestions: 2,
		Questions: []services.QuestionView{
			{ID: 10, Sequence: 1, Type: models.SingleChoice, Options: []services.OptionView{
				{ID: 1, Sequence: 1}, {ID: 2, Sequence: 2},
			}},
			{ID: 20, Sequence: 2, Type: models.MultiChoice, Options: []services.OptionView{
				{ID: 3, Sequence: 1}, {ID: 4, Sequence: 2}, {ID: 5, Sequence: 3},
			}},
		},
	}
}

func TestNavigation(t *testing.T) {
	c := New(&fakeClient{}, testAttempt(), "user-1")

	assert.Equal(t, uint(10), c.Current().ID)
	require.NoError(t, c.Next())
	assert.Equal(t, uint(20), c.Current().ID)
	assert.Error(t, c.Next())
	require.NoError(t, c.Prev())
	assert.Equal(t, 0, c.CurrentIndex())
	assert.Error(t, c.Goto(5))
	require.NoError(t, c.Goto(1))
}

func TestSelect_SingleChoiceSubmitsImmediately(t *testing.T) {
	client := &fakeClient{}
	c := New(client, testAttempt(), "user-1")

	result, err := c.Select(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsCorrect)
	require.Len(t, client.submitted, 1)

	state, ok := c.Answer(10)
	require.True(t, ok)
	assert.True(t, state.Known)
	assert.Equal(t, []uint{2}, state.SelectedOptionIDs)

	// The question is locked after one submission
	_, err = c.Select(context.Background(), 1)
	assert.ErrorIs(t, err, services.ErrDuplicateAnswer)
}

func TestSelect_MultiChoiceTogglesUntilConfirm(t *testing.T) {
	client := &fakeClient{}
	c := New(client, testAttempt(), "user-1")
	require.NoError(t, c.Goto(1))
	ctx := context.Background()

	// Toggling accumulates locally without submitting
	for _, id := range []uint{3, 4, 5, 3} {
		result, err := c.Select(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, result)
	}
	assert.Equal(t, []uint{4, 5}, c.Pending())
	assert.Empty(t, client.submitted)

	result, err := c.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	require.Len(t, client.submitted, 1)
	assert.Equal(t, []uint{4, 5}, client.submitted[0].SelectedOptionIDs)
	assert.Empty(t, c.Pending())
}

func TestConfirm_EmptySelection(t *testing.T) {
	c := New(&fakeClient{}, testAttempt(), "user-1")
	require.NoError(t, c.Goto(1))

	_, err := c.Confirm(context.Background())
	assert.Error(t, err)
}

func TestSubmitFailure_LeavesQuestionUnanswered(t *testing.T) {
	client := &fakeClient{submitErr: errors.New("connection reset")}
	c := New(client, testAttempt(), "user-1")
	ctx := context.Background()

	_, err := c.Select(ctx, 2)
	require.Error(t, err)

	_, answered := c.Answer(10)
	assert.False(t, answered)
	assert.Equal(t, 0, c.AnsweredCount())

	// Retry succeeds once the service recovers
	client.submitErr = nil
	_, err = c.Select(ctx, 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, c.AnsweredCount())
}

func TestSubmitDuplicate_MarksAnswered(t *testing.T) {
	client := &fakeClient{submitErr: services.ErrDuplicateAnswer}
	c := New(client, testAttempt(), "user-1")

	_, err := c.Select(context.Background(), 2)
	assert.ErrorIs(t, err, services.ErrDuplicateAnswer)

	// Another tab answered first; the question still counts toward completion
	state, answered := c.Answer(10)
	assert.True(t, answered)
	assert.False(t, state.Known)
}

func TestComplete_GatedAndRetriable(t *testing.T) {
	client := &fakeClient{}
	c := New(client, testAttempt(), "user-1")
	ctx := context.Background()

	assert.False(t, c.CanComplete())
	_, err := c.Complete(ctx)
	assert.ErrorIs(t, err, services.ErrIncompleteAttempt)

	_, err = c.Select(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, c.Goto(1))
	_, err = c.Select(ctx, 4)
	require.NoError(t, err)
	_, err = c.Confirm(ctx)
	require.NoError(t, err)

	assert.True(t, c.CanComplete())

	// A transient failure leaves the attempt completable
	client.completeErr = errors.New("connection reset")
	_, err = c.Complete(ctx)
	require.Error(t, err)
	assert.True(t, c.CanComplete())
	assert.Nil(t, c.Result())

	client.completeErr = nil
	attemptID, err := c.Complete(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(42), attemptID)
	require.NotNil(t, c.Result())

	// Completion is terminal for the session
	_, err = c.Complete(ctx)
	assert.ErrorIs(t, err, services.ErrAttemptAlreadyCompleted)
	_, err = c.Select(ctx, 1)
	assert.ErrorIs(t, err, services.ErrDuplicateAnswer)
}

func TestResumeSeedsAnswers(t *testing.T) {
	attempt := testAttempt()
	attempt.Answers = []services.AnswerView{
		{QuestionID: 10, SelectedOptionIDs: []uint{2}, IsCorrect: true},
	}
	c := New(&fakeClient{}, attempt, "user-1")

	assert.Equal(t, 1, c.AnsweredCount())
	state, ok := c.Answer(10)
	require.True(t, ok)
	assert.True(t, state.IsCorrect)
	assert.False(t, c.CanComplete())

	_, err := c.Select(context.Background(), 1)
	assert.ErrorIs(t, err, services.ErrDuplicateAnswer)
}
