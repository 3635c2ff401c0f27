// Package session drives a single user's pass through a quiz: navigation,
// option selection and completion. The controller holds presentation state
// only; every correctness verdict and the final score come from the attempt
// service, which stays authoritative. One controller is built per
// interaction and discarded afterwards, nothing here is shared between
// requests.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/uninotes/quiz-service/internal/models"
	"github.com/uninotes/quiz-service/internal/services"
)

// AttemptClient is the slice of the attempt service the controller needs.
type AttemptClient interface {
	SubmitAnswer(ctx context.Context, attemptID uint, req *services.SubmitAnswerRequest, userID string) (*services.SubmitAnswerResult, error)
	Complete(ctx context.Context, attemptID uint, userID string) (*services.CompleteAttemptResult, error)
}

// AnswerState is the locally tracked outcome for one answered question.
type AnswerState struct {
	SelectedOptionIDs []uint
	IsCorrect         bool
	// Known is false when the question was answered outside this session
	// (e.g. another tab won a submission race) and only the fact of being
	// answered is certain.
	Known            bool
	CorrectOptionIDs []uint
	Justification    *string
}

type Controller struct {
	client    AttemptClient
	userID    string
	attemptID uint

	questions []services.QuestionView
	current   int

	answers map[uint]AnswerState
	// pending multi-choice selections per question, awaiting Confirm
	pending map[uint][]uint

	result *services.CompleteAttemptResult
}

// New builds a controller for a started or resumed attempt, seeding the local
// answer map from whatever the attempt already has recorded.
func New(client AttemptClient, attempt *services.AttemptResponse, userID string) *Controller {
	c := &Controller{
		client:    client,
		userID:    userID,
		attemptID: attempt.ID,
		questions: attempt.Questions,
		answers:   make(map[uint]AnswerState, len(attempt.Answers)),
		pending:   make(map[uint][]uint),
	}
	for _, answer := range attempt.Answers {
		c.answers[answer.QuestionID] = AnswerState{
			SelectedOptionIDs: answer.SelectedOptionIDs,
			IsCorrect:         answer.IsCorrect,
			Known:             true,
		}
	}
	return c
}

// ===== NAVIGATION =====

// Current returns the question being displayed.
func (c *Controller) Current() services.QuestionView {
	return c.questions[c.current]
}

func (c *Controller) CurrentIndex() int {
	return c.current
}

// Goto jumps to any question; answering order is free.
func (c *Controller) Goto(index int) error {
	if index < 0 || index >= len(c.questions) {
		return fmt.Errorf("question index %d out of range [0,%d)", index, len(c.questions))
	}
	c.current = index
	return nil
}

func (c *Controller) Next() error {
	return c.Goto(c.current + 1)
}

func (c *Controller) Prev() error {
	return c.Goto(c.current - 1)
}

// ===== ANSWERING =====

// Select handles an option tap on the current question. Single-choice and
// true/false questions submit immediately; multi-choice questions toggle the
// option locally and wait for Confirm. The returned result is nil when
// nothing was submitted.
func (c *Controller) Select(ctx context.Context, optionID uint) (*services.SubmitAnswerResult, error) {
	question := c.Current()
	if _, answered := c.answers[question.ID]; answered {
		return nil, services.ErrDuplicateAnswer
	}

	if question.Type == models.MultiChoice {
		c.togglePending(question.ID, optionID)
		return nil, nil
	}

	return c.submit(ctx, question, []uint{optionID})
}

// Pending returns the not-yet-confirmed selection for the current question.
func (c *Controller) Pending() []uint {
	return c.pending[c.Current().ID]
}

// Confirm submits the pending multi-choice selection for the current question.
func (c *Controller) Confirm(ctx context.Context) (*services.SubmitAnswerResult, error) {
	question := c.Current()
	if _, answered := c.answers[question.ID]; answered {
		return nil, services.ErrDuplicateAnswer
	}
	selected := c.pending[question.ID]
	if len(selected) == 0 {
		return nil, fmt.Errorf("no options selected for question %d", question.ID)
	}
	return c.submit(ctx, question, selected)
}

func (c *Controller) submit(ctx context.Context, question services.QuestionView, selected []uint) (*services.SubmitAnswerResult, error) {
	if c.result != nil {
		return nil, services.ErrAttemptNotActive
	}

	result, err := c.client.SubmitAnswer(ctx, c.attemptID, &services.SubmitAnswerRequest{
		QuestionID:        question.ID,
		SelectedOptionIDs: selected,
	}, c.userID)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateAnswer) {
			// The server already holds an answer (another tab got there
			// first). Record the fact so completion gating stays accurate.
			c.answers[question.ID] = AnswerState{Known: false}
			delete(c.pending, question.ID)
		}
		// Any other failure leaves local state untouched: the question still
		// counts as unanswered and can be resubmitted.
		return nil, err
	}

	c.answers[question.ID] = AnswerState{
		SelectedOptionIDs: selected,
		IsCorrect:         result.IsCorrect,
		Known:             true,
		CorrectOptionIDs:  result.CorrectOptionIDs,
		Justification:     result.Justification,
	}
	delete(c.pending, question.ID)
	return result, nil
}

func (c *Controller) togglePending(questionID, optionID uint) {
	selected := c.pending[questionID]
	for i, id := range selected {
		if id == optionID {
			c.pending[questionID] = append(selected[:i], selected[i+1:]...)
			return
		}
	}
	c.pending[questionID] = append(selected, optionID)
}

// ===== STATE =====

// Answer returns the recorded state for a question, if it has been answered.
func (c *Controller) Answer(questionID uint) (AnswerState, bool) {
	state, ok := c.answers[questionID]
	return state, ok
}

func (c *Controller) AnsweredCount() int {
	return len(c.answers)
}

func (c *Controller) TotalQuestions() int {
	return len(c.questions)
}

// CanComplete mirrors the server-side gate so the UI can disable the finish
// action without a round trip. The server still re-checks on Complete.
func (c *Controller) CanComplete() bool {
	return c.result == nil && len(c.answers) == len(c.questions)
}

// ===== COMPLETION =====

// Complete finalizes the attempt server-side. On failure the controller
// state is unchanged and Complete may be called again; the server performs
// the authoritative answered-count check either way. On success it returns
// the attempt id, the stable reference the review screen loads.
func (c *Controller) Complete(ctx context.Context) (uint, error) {
	if c.result != nil {
		return 0, services.ErrAttemptAlreadyCompleted
	}
	if !c.CanComplete() {
		return 0, services.ErrIncompleteAttempt
	}

	result, err := c.client.Complete(ctx, c.attemptID, c.userID)
	if err != nil {
		return 0, err
	}
	c.result = result
	return result.AttemptID, nil
}

// Result returns the completion outcome once Complete has succeeded.
func (c *Controller) Result() *services.CompleteAttemptResult {
	return c.result
}
