package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizAttempt is one user's pass at a quiz. At most one open attempt (null
// completed_at) exists per (user, quiz); the partial unique index below is
// what makes concurrent Start calls converge on a single row.
type QuizAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;index:idx_open_attempt,unique,where:completed_at IS NULL"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index:idx_open_attempt,unique,where:completed_at IS NULL"`

	// Question count snapshot taken at start; later quiz edits do not move it.
	TotalQuestions int `json:"total_questions" gorm:"not null"`

	// Count of correct answers, written once on completion.
	Score int `json:"score" gorm:"default:0"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []AttemptAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

// AttemptAnswer is the immutable record of one question's submission within
// one attempt. The unique (attempt_id, question_id) index rejects the second
// writer on a double submission.
type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index:idx_attempt_question,unique"`
	QuestionID uint `json:"question_id" gorm:"not null;index:idx_attempt_question,unique"`

	SelectedOptionIDs datatypes.JSONSlice[uint] `json:"selected_option_ids" gorm:"type:jsonb"`

	// Correctness frozen at submission time; rescoring never rewrites it.
	IsCorrect bool `json:"is_correct" gorm:"not null"`

	AnsweredAt time.Time `json:"answered_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// IsCompleted reports whether the attempt has been finalized.
func (a *QuizAttempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// AnsweredQuestionIDs returns the ids of questions already answered in this
// attempt, used to seed the session state on resume.
func (a *QuizAttempt) AnsweredQuestionIDs() []uint {
	ids := make([]uint, 0, len(a.Answers))
	for _, ans := range a.Answers {
		ids = append(ids, ans.QuestionID)
	}
	return ids
}
