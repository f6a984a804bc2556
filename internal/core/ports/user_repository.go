package ports

import (
	"context"

	"github.com/minicrm/crm-api/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// ListByRole returns users with the given role, oldest first.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}
