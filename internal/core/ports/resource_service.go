package ports

import (
	"context"
	"encoding/json"

	"github.com/minicrm/crm-api/internal/core/domain"
)

// UserService exposes user listings to admins.
type UserService interface {
	ListEmployees(ctx context.Context) ([]*domain.User, error)
}

// CustomerInput carries the writable customer fields.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// CustomerDetail is a customer together with its leads.
type CustomerDetail struct {
	*domain.Customer
	Leads []*domain.Lead `json:"leads"`
}

// CustomerService manages customers. Route authorization restricts every
// method to admins.
type CustomerService interface {
	Create(ctx context.Context, caller domain.Caller, in CustomerInput) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
	Get(ctx context.Context, id string) (*CustomerDetail, error)
	Update(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// CreateLeadInput carries the fields of a new lead. Value is the raw JSON
// value as sent by the client.
type CreateLeadInput struct {
	Title        string
	Description  string
	Value        json.RawMessage
	CustomerID   string
	AssignedToID string
}

// UpdateLeadInput carries a lead update. Nil fields were absent from the
// request.
type UpdateLeadInput struct {
	Title        *string
	Description  *string
	Value        json.RawMessage
	CustomerID   *string
	AssignedToID *string
	Status       *string

	// Keys lists every top-level key of the request body, known or not.
	Keys []string
}

// HasNonStatusFields reports whether anything other than status was sent.
func (in UpdateLeadInput) HasNonStatusFields() bool {
	if in.Title != nil || in.Description != nil || len(in.Value) > 0 ||
		in.CustomerID != nil || in.AssignedToID != nil {
		return true
	}
	for _, k := range in.Keys {
		if k != "status" {
			return true
		}
	}
	return false
}

// LeadService manages leads on behalf of a caller.
type LeadService interface {
	Create(ctx context.Context, caller domain.Caller, in CreateLeadInput) (*domain.Lead, error)
	List(ctx context.Context, caller domain.Caller) ([]*domain.Lead, error)
	Update(ctx context.Context, caller domain.Caller, id string, in UpdateLeadInput) (*domain.Lead, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, caller domain.Caller) (*domain.LeadStats, error)
}
