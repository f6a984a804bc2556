package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minicrm/crm-api/internal/api/metrics"
	"github.com/minicrm/crm-api/internal/core/authz"
	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
	"github.com/minicrm/crm-api/pkg/logger"
)

const statsScopeAll = "all"

type LeadService struct {
	leads     ports.LeadRepository
	customers ports.CustomerRepository
	users     ports.UserRepository
	stats     ports.LeadStatsCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewLeadService wires the lead use cases. stats may be nil, in which case
// every stats request is computed from the store.
func NewLeadService(
	leads ports.LeadRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	stats ports.LeadStatsCache,
	log zerolog.Logger,
) *LeadService {
	return &LeadService{leads: leads, customers: customers, users: users, stats: stats, log: log, now: time.Now}
}

func (s *LeadService) Create(ctx context.Context, caller domain.Caller, in ports.CreateLeadInput) (*domain.Lead, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.CustomerID == "" || in.AssignedToID == "" {
		return nil, domain.Validation("Title, customer, and assigned user are required.")
	}

	customer, assignee, err := s.resolveRefs(ctx, in.CustomerID, in.AssignedToID)
	if err != nil {
		return nil, err
	}

	created, err := s.leads.Create(ctx, &domain.Lead{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Value:       domain.CoerceValue(in.Value),
		Status:      domain.LeadNew,
		Customer:    customer,
		AssignedTo:  assignee,
		CreatedBy:   caller.UserRef(),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.dropIfOrphaned(ctx, created); err != nil {
		return nil, err
	}

	metrics.LeadsCreatedTotal.Inc()
	invalidateStats(ctx, s.stats, s.log)
	logFor(ctx, s.log).Info().Str("lead_id", created.ID).Str("customer_id", customer.ID).Str("assigned_to", assignee.ID).Msg("lead created")
	return created, nil
}

// List returns every lead for admins and only the caller's assigned leads
// for employees.
func (s *LeadService) List(ctx context.Context, caller domain.Caller) ([]*domain.Lead, error) {
	filter, err := s.scope(authz.LeadList, caller)
	if err != nil {
		return nil, err
	}
	return s.leads.List(ctx, filter)
}

// Update applies a full edit for admins. The current assignee may only change
// the status; a request carrying any other field is rejected whole.
func (s *LeadService) Update(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	access, err := authz.Authorize(authz.LeadUpdate, caller, lead.AssignedTo.ID)
	if err != nil {
		return nil, domain.Forbidden("Not authorized to update this lead.")
	}

	var updated *domain.Lead
	if access == authz.Full {
		updated, err = s.fullUpdate(ctx, lead, in)
	} else {
		updated, err = s.statusUpdate(ctx, lead, in)
	}
	if err != nil {
		return nil, err
	}

	if updated.Status != lead.Status {
		metrics.LeadStatusChangesTotal.WithLabelValues(string(updated.Status), string(caller.Role)).Inc()
	}
	invalidateStats(ctx, s.stats, s.log)
	return updated, nil
}

func (s *LeadService) fullUpdate(ctx context.Context, lead *domain.Lead, in ports.UpdateLeadInput) (*domain.Lead, error) {
	title, customerID, assigneeID := deref(in.Title), deref(in.CustomerID), deref(in.AssignedToID)
	title = strings.TrimSpace(title)
	if title == "" || customerID == "" || assigneeID == "" {
		return nil, domain.Validation("Title, Customer, and Assigned User are required.")
	}

	next := *lead
	next.Title = title
	next.Description = strings.TrimSpace(deref(in.Description))
	next.Value = domain.CoerceValue(in.Value)
	if in.Status != nil && *in.Status != "" {
		st, err := domain.ParseLeadStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		next.Status = st
	}

	customer, assignee, err := s.resolveRefs(ctx, customerID, assigneeID)
	if err != nil {
		return nil, err
	}
	next.Customer, next.AssignedTo = customer, assignee

	return s.leads.Update(ctx, &next)
}

func (s *LeadService) statusUpdate(ctx context.Context, lead *domain.Lead, in ports.UpdateLeadInput) (*domain.Lead, error) {
	if in.HasNonStatusFields() {
		return nil, domain.Forbidden("Only status can be updated by an employee.")
	}
	if in.Status == nil || *in.Status == "" {
		return nil, domain.Validation("Only status can be updated by an employee.")
	}
	st, err := domain.ParseLeadStatus(*in.Status)
	if err != nil {
		return nil, err
	}
	return s.leads.UpdateStatus(ctx, lead.ID, st)
}

func (s *LeadService) Delete(ctx context.Context, id string) error {
	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}
	invalidateStats(ctx, s.stats, s.log)
	return nil
}

// Stats summarises the leads visible to the caller. Results are served from
// the cache when possible; a failing cache only costs a recomputation.
func (s *LeadService) Stats(ctx context.Context, caller domain.Caller) (*domain.LeadStats, error) {
	filter, err := s.scope(authz.LeadStats, caller)
	if err != nil {
		return nil, err
	}
	scope := statsScopeAll
	if filter.AssignedTo != "" {
		scope = "user:" + filter.AssignedTo
	}

	var token string
	if s.stats != nil {
		cached, tok, err := s.stats.Get(ctx, scope)
		token = tok
		switch {
		case err != nil:
			metrics.LeadStatsCacheTotal.WithLabelValues("error").Inc()
			logFor(ctx, s.log).Warn().Err(err).Str("scope", scope).Msg("lead stats cache read failed, computing")
		case cached != nil:
			metrics.LeadStatsCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.LeadStatsCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	stats, err := s.leads.Stats(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.stats != nil && token != "" {
		if err := s.stats.Set(ctx, token, stats); err != nil {
			logFor(ctx, s.log).Warn().Err(err).Str("scope", scope).Msg("lead stats cache write failed")
		}
	}
	return stats, nil
}

// scope turns the caller's access for op into a repository filter.
func (s *LeadService) scope(op authz.Operation, caller domain.Caller) (ports.LeadFilter, error) {
	access, err := authz.Resolve(op, caller)
	if err != nil {
		return ports.LeadFilter{}, err
	}
	if access == authz.Owned {
		return ports.LeadFilter{AssignedTo: caller.ID}, nil
	}
	return ports.LeadFilter{}, nil
}

// resolveRefs loads the customer and assignee a lead points at. References
// that do not resolve are a validation failure, not a 404 on the request.
func (s *LeadService) resolveRefs(ctx context.Context, customerID, assigneeID string) (domain.Ref, domain.Ref, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Ref{}, domain.Ref{}, domain.Validation("Customer does not exist.")
		}
		return domain.Ref{}, domain.Ref{}, err
	}

	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Ref{}, domain.Ref{}, domain.Validation("Assigned user does not exist.")
		}
		return domain.Ref{}, domain.Ref{}, err
	}

	return domain.Ref{ID: customer.ID, Name: customer.Name}, domain.Ref{ID: assignee.ID, Name: assignee.Name}, nil
}

// dropIfOrphaned removes a just-inserted lead whose customer was deleted
// after the references were resolved, since that delete has already swept
// the customer's leads.
func (s *LeadService) dropIfOrphaned(ctx context.Context, lead *domain.Lead) error {
	_, err := s.customers.FindByID(ctx, lead.Customer.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if derr := s.leads.Delete(ctx, lead.ID); derr != nil && !errors.Is(derr, domain.ErrNotFound) {
		logFor(ctx, s.log).Error().Err(derr).Str("lead_id", lead.ID).Msg("failed to remove lead of deleted customer")
		return derr
	}
	logFor(ctx, s.log).Warn().Str("lead_id", lead.ID).Str("customer_id", lead.Customer.ID).Msg("customer deleted during lead creation")
	return domain.Validation("Customer does not exist.")
}

func invalidateStats(ctx context.Context, cache ports.LeadStatsCache, log zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logFor(ctx, log).Warn().Err(err).Msg("lead stats cache invalidation failed")
	}
}

// logFor returns the request-scoped logger carried by ctx, or base.
func logFor(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	l := logger.FromContext(ctx, base)
	return &l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
