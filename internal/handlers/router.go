package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uninotes/quiz-service/internal/services"
	"github.com/uninotes/quiz-service/internal/utils"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	quizHandler    *QuizHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), serviceManager.Export(), validator, logger),
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), logger),
	}
}

// SetupRoutes sets up all API routes. Every /api/v1 route requires an
// authenticated caller, supplied by authMiddleware.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware)
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/complete", hm.attemptHandler.CompleteAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttemptReview)

			// Quiz-scoped lookups
			attempts.GET("/open/:quiz_id", hm.attemptHandler.GetOpenAttempt)
			attempts.GET("/best/:quiz_id", hm.attemptHandler.GetBestAttempt)
			attempts.GET("/history/:quiz_id", hm.attemptHandler.GetHistory)
			attempts.GET("/history/:quiz_id/export", hm.attemptHandler.ExportHistory)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
		}
	}
}
