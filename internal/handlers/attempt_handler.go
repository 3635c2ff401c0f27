package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uninotes/quiz-service/internal/services"
	"github.com/uninotes/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
	validator      *utils.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	exportService services.ExportService,
	validator *utils.Validator,
	logger *slog.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
		validator:      validator,
	}
}

// StartAttempt opens an attempt on a quiz, or resumes the caller's open one.
// Responds 200 with "resumed": true when an open attempt already existed,
// 201 when a fresh attempt was created.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", req.QuizID)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// SubmitAnswer records the caller's answer to one question of an open attempt
// and returns the verdict with the correct options and justification.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompleteAttempt finalizes an open attempt and returns the score.
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Completing attempt", "attempt_id", attemptID)

	result, err := h.attemptService.Complete(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttemptReview returns the full review of a completed attempt: questions,
// the caller's selections, the correct options and justifications.
func (h *AttemptHandler) GetAttemptReview(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	review, err := h.attemptService.GetReview(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// GetOpenAttempt returns the caller's open attempt on a quiz, if any.
func (h *AttemptHandler) GetOpenAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	attempt, err := h.attemptService.GetOpenAttempt(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetBestAttempt returns the caller's best completed score on a quiz.
func (h *AttemptHandler) GetBestAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	best, err := h.attemptService.GetBestAttempt(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, best)
}

// GetHistory lists the caller's completed attempts on a quiz, newest first.
func (h *AttemptHandler) GetHistory(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	attempts, err := h.attemptService.GetHistory(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt history",
		Data:    attempts,
	})
}

// ExportHistory streams the caller's attempt history on a quiz as an xlsx
// workbook.
func (h *AttemptHandler) ExportHistory(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting attempt history", "quiz_id", quizID)

	workbook, err := h.exportService.ExportAttemptHistory(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-%d-attempts.xlsx", quizID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		workbook)
}
