package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of attempt events
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"
)

// AttemptEvent is the envelope published to the attempt event topic. The
// content service consumes attempt.completed to maintain each quiz's
// aggregate attempt counter.
type AttemptEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

type AttemptStartedEvent struct {
	AttemptID uint   `json:"attempt_id"`
	QuizID    uint   `json:"quiz_id"`
	UserID    string `json:"user_id"`
	Resumed   bool   `json:"resumed"`
}

type AttemptCompletedEvent struct {
	AttemptID      uint      `json:"attempt_id"`
	QuizID         uint      `json:"quiz_id"`
	UserID         string    `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

// NewAttemptEvent wraps a payload in the standard envelope.
func NewAttemptEvent(eventType EventType, data interface{}) *AttemptEvent {
	return &AttemptEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
}
