package ports

import (
	"context"
)

// RegisterInput carries the fields of a self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService issues bearer tokens. All three paths return tokens of the same
// shape.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	AdminLogin(ctx context.Context, adminName, adminKey string) (string, error)
}
