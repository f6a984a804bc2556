package ports

import (
	"context"

	"github.com/minicrm/crm-api/internal/core/domain"
)

// CustomerRepository persists customers. Implementations map unique-index
// violations on email to a domain conflict error.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	// List returns every customer, newest first.
	List(ctx context.Context) ([]*domain.Customer, error)
	// Update replaces the mutable fields (name, email, phone, company).
	Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	// DeleteCascade removes the customer and every lead referencing it as one
	// unit of work and returns the number of leads removed.
	DeleteCascade(ctx context.Context, id string) (int64, error)
}
