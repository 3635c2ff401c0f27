package models

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizStatusDraft    QuizStatus = "draft"
	QuizStatusPending  QuizStatus = "pending"
	QuizStatusApproved QuizStatus = "approved"
	QuizStatusRejected QuizStatus = "rejected"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	TrueFalse    QuestionType = "true_false"
)

// Quiz and its questions/options are owned by the content and moderation
// services. The attempt engine reads them and never mutates them; Status and
// the aggregate counters are maintained by those collaborators.
type Quiz struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ChapterID   uint       `json:"chapter_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      QuizStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,quiz_status"`

	// Contributor who submitted the quiz
	CreatedBy string `json:"created_by" gorm:"not null;size:255;index"`

	// Aggregate counters kept current by the moderation/voting services
	AttemptCount int `json:"attempt_count" gorm:"default:0"`
	NetVotes     int `json:"net_votes" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	QuizID uint `json:"quiz_id" gorm:"not null;index:idx_quiz_sequence,unique"`

	// 1-based presentation order, unique within the quiz
	Sequence int          `json:"sequence" gorm:"not null;index:idx_quiz_sequence,unique" validate:"required,min=1"`
	Type     QuestionType `json:"type" gorm:"not null;size:20" validate:"required,question_type"`
	Text     string       `json:"text" gorm:"not null;type:text" validate:"required"`

	// Shown to the student after the answer is locked in
	Justification *string `json:"justification" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []Option `json:"options" gorm:"foreignKey:QuestionID"`
}

type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index:idx_question_sequence,unique"`
	Sequence   int    `json:"sequence" gorm:"not null;index:idx_question_sequence,unique" validate:"required,min=1"`
	Text       string `json:"text" gorm:"not null;type:text" validate:"required"`

	// Never serialized to the taking UI before the question is answered;
	// handlers strip it via the sanitized views.
	IsCorrect bool `json:"is_correct" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "questions"
}

func (Option) TableName() string {
	return "options"
}

// CorrectOptionIDs collects the ids of the options flagged correct,
// in option order.
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// QuestionByID looks a question up within the loaded quiz.
func (q *Quiz) QuestionByID(questionID uint) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i]
		}
	}
	return nil
}

// VisibleTo implements the moderation collaborator's visibility rule: the
// contributor may open their own quiz at any status, everyone else only once
// it has been approved.
func (q *Quiz) VisibleTo(userID string) bool {
	return q.Status == QuizStatusApproved || q.CreatedBy == userID
}
