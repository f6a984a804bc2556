package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/minicrm/crm-api/internal/api/metrics"
	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

type CustomerService struct {
	customers ports.CustomerRepository
	leads     ports.LeadRepository
	stats     ports.LeadStatsCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewCustomerService wires the customer use cases. stats may be nil.
func NewCustomerService(customers ports.CustomerRepository, leads ports.LeadRepository, stats ports.LeadStatsCache, log zerolog.Logger) *CustomerService {
	return &CustomerService{customers: customers, leads: leads, stats: stats, log: log, now: time.Now}
}

// Create stores a new customer. createdBy is set only for persisted callers.
func (s *CustomerService) Create(ctx context.Context, caller domain.Caller, in ports.CustomerInput) (*domain.Customer, error) {
	c := &domain.Customer{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		CreatedBy: caller.UserRef(),
		CreatedAt: s.now().UTC(),
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, c.Email, ""); err != nil {
		return nil, err
	}

	created, err := s.customers.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	metrics.CustomersCreatedTotal.Inc()
	logFor(ctx, s.log).Info().Str("customer_id", created.ID).Bool("temporary_creator", caller.IsTemporary()).Msg("customer created")
	return created, nil
}

func (s *CustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.customers.List(ctx)
}

func (s *CustomerService) Get(ctx context.Context, id string) (*ports.CustomerDetail, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leads, err := s.leads.List(ctx, ports.LeadFilter{CustomerID: c.ID})
	if err != nil {
		return nil, err
	}
	return &ports.CustomerDetail{Customer: c, Leads: leads}, nil
}

// Update replaces name, email, phone and company.
func (s *CustomerService) Update(ctx context.Context, id string, in ports.CustomerInput) (*domain.Customer, error) {
	existing, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Name, updated.Email, updated.Phone, updated.Company = in.Name, in.Email, in.Phone, in.Company
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, updated.Email, existing.ID); err != nil {
		return nil, err
	}

	return s.customers.Update(ctx, &updated)
}

// Delete removes the customer together with all of its leads.
func (s *CustomerService) Delete(ctx context.Context, id string) (int64, error) {
	removed, err := s.customers.DeleteCascade(ctx, id)
	if err != nil {
		return 0, err
	}

	metrics.CascadeDeletedLeadsTotal.Add(float64(removed))
	invalidateStats(ctx, s.stats, s.log)
	logFor(ctx, s.log).Info().Str("customer_id", id).Int64("leads_removed", removed).Msg("customer deleted")
	return removed, nil
}

// ensureEmailFree fails with a conflict when email belongs to a customer
// other than selfID.
func (s *CustomerService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	other, err := s.customers.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		if selfID == "" {
			return domain.Conflict("A customer with this email already exists.")
		}
		return domain.Conflict("Another customer with this email already exists.")
	}
	return nil
}
