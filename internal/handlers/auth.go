package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/uninotes/quiz-service/internal/config"
)

// NewCasdoorClient builds the SDK client used to verify bearer tokens.
func NewCasdoorClient(cfg *config.Config) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
}

// AuthMiddleware verifies the Authorization bearer token against Casdoor and
// stores the caller's user id under "user_id" for the handlers downstream.
func AuthMiddleware(client *casdoorsdk.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := client.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
			})
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Next()
	}
}
