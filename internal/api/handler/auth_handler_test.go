package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn   func(ctx context.Context, in ports.RegisterInput) (string, error)
	loginFn      func(ctx context.Context, email, password string) (string, error)
	adminLoginFn func(ctx context.Context, name, key string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) AdminLogin(ctx context.Context, name, key string) (string, error) {
	return s.adminLoginFn(ctx, name, key)
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Token
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (string, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Password != "secret" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return "token123", nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/users/register", `{"name":"Alice","email":"alice@example.com","password":"secret"}`)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if tok := decodeToken(t, rec); tok != "token123" {
		t.Fatalf("expected token123, got %q", tok)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (string, error) {
			t.Fatalf("should not be called")
			return "", nil
		},
	}

	for _, body := range []string{`{"email":"a@example.com","password":"p"}`, `{"name":"  ","email":"a@example.com","password":"p"}`, `not-json`, ``} {
		c, _ := newTestContext(http.MethodPost, "/api/users/register", body)
		err := NewAuthHandler(stub).Register(c)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("body %q: expected ErrValidation, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_PropagatesConflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (string, error) {
			return "", domain.Conflict("User with this email already exists.")
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/users/register", `{"name":"Bob","email":"bob@example.com","password":"p"}`)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/users/login", `{"email":"alice@example.com","password":"secret"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decodeToken(t, rec) != "token123" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			t.Fatalf("should not be called")
			return "", nil
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/users/login", "{")

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	stub := &stubAuthService{
		adminLoginFn: func(ctx context.Context, name, key string) (string, error) {
			if key != "124356" {
				return "", domain.Unauthenticated("Invalid admin key.")
			}
			return "admin-token", nil
		},
	}

	c, rec := newTestContext(http.MethodPost, "/api/users/admin/login", `{"adminName":"Ops","adminKey":"124356"}`)
	if err := NewAuthHandler(stub).AdminLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decodeToken(t, rec) != "admin-token" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newTestContext(http.MethodPost, "/api/users/admin/login", `{"adminName":"Ops","adminKey":"nope"}`)
	if err := NewAuthHandler(stub).AdminLogin(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	c, _ = newTestContext(http.MethodPost, "/api/users/admin/login", `{"adminKey":"124356"}`)
	err := NewAuthHandler(stub).AdminLogin(c)
	if !errors.Is(err, domain.ErrValidation) || domain.Message(err, "") != "Admin name and key are required." {
		t.Fatalf("expected admin validation error, got %v", err)
	}
}
