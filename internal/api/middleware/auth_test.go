package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/pkg/jwtauth"
)

const testEmployeeID = "64b7f0c2a1b2c3d4e5f60701"

func newContext(authHeader string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := jwtauth.NewManager("secret", time.Hour)
	signed, err := tokens.Issue(testEmployeeID, domain.RoleEmployee, "Eve")
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	c := newContext("Bearer " + signed)
	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		caller, ok := CallerFrom(c)
		if !ok {
			t.Fatalf("caller not set")
		}
		if caller.ID != testEmployeeID || caller.Role != domain.RoleEmployee || caller.Name != "Eve" || caller.IsTemporary() {
			t.Fatalf("unexpected caller: %+v", caller)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthMiddleware_EphemeralAdmin(t *testing.T) {
	tokens := jwtauth.NewManager("secret", time.Hour)
	signed, _ := tokens.Issue("admin_session_2Nf1vDq0ZGZ6V5a8n1XzQw3Kp9L", domain.RoleAdmin, "Ops")

	handler := Auth(tokens)(func(c echo.Context) error {
		caller, _ := CallerFrom(c)
		if !caller.IsTemporary() || caller.UserRef() != "" {
			t.Fatalf("expected temporary caller, got %+v", caller)
		}
		return nil
	})
	if err := handler(newContext("Bearer " + signed)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := jwtauth.NewManager("secret", time.Hour)
	other := jwtauth.NewManager("other-secret", time.Hour)
	foreign, _ := other.Issue(testEmployeeID, domain.RoleEmployee, "Eve")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtauth.Claims{
		User: jwtauth.UserClaim{ID: testEmployeeID, Role: domain.RoleEmployee, Name: "Eve"},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredSigned, _ := expired.SignedString([]byte("secret"))

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"empty token":    "Bearer ",
		"garbage":        "Bearer not-a-token",
		"wrong secret":   "Bearer " + foreign,
		"expired":        "Bearer " + expiredSigned,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			err := Auth(tokens)(mustNotReach(t))(newContext(header))
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}
