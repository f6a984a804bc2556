package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/minicrm/crm-api/internal/api/middleware"
	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

type stubLeadService struct {
	ports.LeadService
	updateFn func(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error)
	createFn func(ctx context.Context, caller domain.Caller, in ports.CreateLeadInput) (*domain.Lead, error)
}

func (s *stubLeadService) Update(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubLeadService) Create(ctx context.Context, caller domain.Caller, in ports.CreateLeadInput) (*domain.Lead, error) {
	return s.createFn(ctx, caller, in)
}

var testEmployee = domain.NewCaller("64b7f0c2a1b2c3d4e5f60701", domain.RoleEmployee, "Eve")

func TestLeadHandler_Update_KeepsAbsentFieldsNil(t *testing.T) {
	stub := &stubLeadService{
		updateFn: func(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error) {
			if caller.ID != testEmployee.ID || id != "64b7f0c2a1b2c3d4e5f60799" {
				t.Fatalf("unexpected caller/id: %+v %s", caller, id)
			}
			if in.HasNonStatusFields() {
				t.Fatalf("absent fields must stay absent: %+v", in)
			}
			if in.Status == nil || *in.Status != "Converted" {
				t.Fatalf("expected status Converted, got %v", in.Status)
			}
			return &domain.Lead{ID: id, Status: domain.LeadConverted}, nil
		},
	}

	c, rec := newTestContext(http.MethodPut, "/api/leads/64b7f0c2a1b2c3d4e5f60799", `{"status":"Converted"}`)
	c.SetParamNames("id")
	c.SetParamValues("64b7f0c2a1b2c3d4e5f60799")
	c.Set(middleware.CallerKey, testEmployee)

	if err := NewLeadHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLeadHandler_Update_ForwardsExtraFields(t *testing.T) {
	stub := &stubLeadService{
		updateFn: func(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error) {
			if !in.HasNonStatusFields() || string(in.Value) != `"250"` {
				t.Fatalf("expected value to be forwarded raw, got %+v", in)
			}
			return nil, domain.Forbidden("Only status can be updated by an employee.")
		},
	}

	c, _ := newTestContext(http.MethodPut, "/api/leads/x", `{"status":"Lost","value":"250"}`)
	c.SetParamNames("id")
	c.SetParamValues("x")
	c.Set(middleware.CallerKey, testEmployee)

	if err := NewLeadHandler(stub).Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeadHandler_Update_ForwardsUnknownKeys(t *testing.T) {
	stub := &stubLeadService{
		updateFn: func(ctx context.Context, caller domain.Caller, id string, in ports.UpdateLeadInput) (*domain.Lead, error) {
			if len(in.Keys) != 2 || in.Keys[0] != "assignedTo" || in.Keys[1] != "status" {
				t.Fatalf("expected every body key, got %v", in.Keys)
			}
			if !in.HasNonStatusFields() {
				t.Fatalf("unknown key must count as a non-status field")
			}
			if in.Status == nil || *in.Status != "Converted" {
				t.Fatalf("body must still bind after reading keys, got %v", in.Status)
			}
			return nil, domain.Forbidden("Only status can be updated by an employee.")
		},
	}

	c, _ := newTestContext(http.MethodPut, "/api/leads/x", `{"status":"Converted","assignedTo":"64b7f0c2a1b2c3d4e5f60702"}`)
	c.SetParamNames("id")
	c.SetParamValues("x")
	c.Set(middleware.CallerKey, testEmployee)

	if err := NewLeadHandler(stub).Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeadHandler_Update_RejectsNonObjectBody(t *testing.T) {
	stub := &stubLeadService{
		updateFn: func(context.Context, domain.Caller, string, ports.UpdateLeadInput) (*domain.Lead, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	c, _ := newTestContext(http.MethodPut, "/api/leads/x", `["status"]`)
	c.SetParamNames("id")
	c.SetParamValues("x")
	c.Set(middleware.CallerKey, testEmployee)

	if err := NewLeadHandler(stub).Update(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLeadHandler_Create_RequiresFields(t *testing.T) {
	stub := &stubLeadService{
		createFn: func(ctx context.Context, caller domain.Caller, in ports.CreateLeadInput) (*domain.Lead, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	c, _ := newTestContext(http.MethodPost, "/api/leads", `{"title":"Renewal","customerId":"64b7f0c2a1b2c3d4e5f60799"}`)
	c.Set(middleware.CallerKey, domain.NewCaller("admin_session_x", domain.RoleAdmin, "Ops"))

	err := NewLeadHandler(stub).Create(c)
	if !errors.Is(err, domain.ErrValidation) || domain.Message(err, "") != "Title, customer, and assigned user are required." {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLeadHandler_RequiresCaller(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/leads", "")
	if err := NewLeadHandler(&stubLeadService{}).List(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
