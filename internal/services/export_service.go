package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uninotes/quiz-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

const historySheet = "Attempt History"

// ExportAttemptHistory renders the user's completed attempts on a quiz as an
// xlsx workbook, newest first.
func (s *exportService) ExportAttemptHistory(ctx context.Context, quizID uint, userID string) ([]byte, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.VisibleTo(userID) {
		return nil, ErrQuizNotFound
	}

	attempts, err := s.repo.Attempt().GetCompletedAttempts(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", historySheet)

	headers := []string{"Attempt ID", "Started At", "Completed At", "Score", "Total Questions", "Percentage"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, header)
	}

	for row, attempt := range attempts {
		values := []interface{}{
			attempt.ID,
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			attempt.CompletedAt.Format("2006-01-02 15:04:05"),
			attempt.Score,
			attempt.TotalQuestions,
			percentage(attempt.Score, attempt.TotalQuestions),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(historySheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Exported attempt history",
		"quiz_id", quizID,
		"user_id", userID,
		"attempts", len(attempts))

	return buf.Bytes(), nil
}

func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
