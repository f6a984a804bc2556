package jwtauth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minicrm/crm-api/internal/core/domain"
)

func TestManager_IssueParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	tok, err := m.Issue("64b7f0c2a1b2c3d4e5f60718", domain.RoleEmployee, "Eve")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	caller, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if caller.ID != "64b7f0c2a1b2c3d4e5f60718" || caller.Role != domain.RoleEmployee || caller.Name != "Eve" {
		t.Fatalf("unexpected caller: %+v", caller)
	}
	if caller.IsTemporary() {
		t.Fatalf("persisted id must not be temporary")
	}
}

func TestManager_PayloadShape(t *testing.T) {
	m := NewManager("secret", time.Hour)
	tok, _ := m.Issue("admin_session_abc", domain.RoleAdmin, "Ops")

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("payload missing user object: %s", payload)
	}
	if user["id"] != "admin_session_abc" || user["role"] != "admin" || user["name"] != "Ops" {
		t.Fatalf("unexpected user claim: %+v", user)
	}
	if _, ok := body["exp"]; !ok {
		t.Fatalf("payload missing exp")
	}
	if _, ok := body["iat"]; !ok {
		t.Fatalf("payload missing iat")
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _ := m.Issue("64b7f0c2a1b2c3d4e5f60718", domain.RoleEmployee, "Eve")

	m.now = time.Now
	if _, err := m.Parse(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManager_RejectsWrongSecretAndAlgorithm(t *testing.T) {
	m := NewManager("secret", time.Hour)

	other := NewManager("other", time.Hour)
	tok, _ := other.Issue("64b7f0c2a1b2c3d4e5f60718", domain.RoleEmployee, "Eve")
	if _, err := m.Parse(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		User: UserClaim{ID: "64b7f0c2a1b2c3d4e5f60718", Role: domain.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := hs512.SignedString([]byte("secret"))
	if _, err := m.Parse(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}
}

func TestManager_RejectsUnknownRole(t *testing.T) {
	m := NewManager("secret", time.Hour)
	tok, _ := m.Issue("64b7f0c2a1b2c3d4e5f60718", domain.Role("root"), "Mallory")
	if _, err := m.Parse(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
