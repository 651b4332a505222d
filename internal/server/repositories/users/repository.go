// Package users contains the persistence boundary for directory accounts,
// including role membership.
package users

import (
	"context"

	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	AssignRole(ctx context.Context, userID string, role string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
}
