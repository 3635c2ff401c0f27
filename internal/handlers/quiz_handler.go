package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uninotes/quiz-service/internal/services"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// GetQuiz returns a quiz as the taking UI sees it, questions and options in
// sequence order with correctness withheld. Quizzes the caller may not see
// respond 404, indistinguishable from a missing one.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	quiz, err := h.quizService.GetForTaking(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}
