package ports

import (
	"context"

	"github.com/minicrm/crm-api/internal/core/domain"
)

// LeadFilter narrows lead queries. Empty fields do not filter.
type LeadFilter struct {
	AssignedTo string
	CustomerID string
}

// LeadRepository persists leads. Reads return leads with the customer and
// assignee references populated with their names.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
	// List returns matching leads, newest first.
	List(ctx context.Context, filter LeadFilter) ([]*domain.Lead, error)
	// Update replaces title, description, value, status, customer and assignee.
	Update(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, filter LeadFilter) (*domain.LeadStats, error)
}

// LeadStatsCache caches LeadStats per scope. Any lead write invalidates every
// scope at once.
//
// Get returns the stats cached for scope (nil on a miss) and an entry token
// bound to the generation that was read. Set stores under that token only, so
// stats computed before an invalidation never become current.
type LeadStatsCache interface {
	Get(ctx context.Context, scope string) (*domain.LeadStats, string, error)
	Set(ctx context.Context, token string, stats *domain.LeadStats) error
	Invalidate(ctx context.Context) error
}
