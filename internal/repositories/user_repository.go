package repositories

import (
	"context"

	"github.com/uninotes/quiz-service/internal/models"
)

// UserRepository reads account rows owned by the accounts service.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
