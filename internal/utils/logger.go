package utils

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
)

// NewLogger returns the service logger: JSON output in production, text
// output with debug level everywhere else.
func NewLogger(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// LoggerMiddleware routes gin request logs through slog.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		level := slog.LevelInfo
		if param.StatusCode >= 400 {
			level = slog.LevelWarn
		}
		if param.StatusCode >= 500 {
			level = slog.LevelError
		}

		logger.Log(param.Request.Context(), level, "HTTP Request",
			"method", param.Method,
			"path", param.Path,
			"status_code", param.StatusCode,
			"duration", param.Latency.String(),
			"client_ip", param.ClientIP,
		)
		return ""
	})
}
