package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/minicrm/crm-api/internal/api/metrics"
	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

const adminSessionPrefix = "admin_session_"

// TokenIssuer signs tokens for an identity.
type TokenIssuer interface {
	Issue(id string, role domain.Role, name string) (string, error)
}

// AuthService implements registration, password login and admin-key login.
type AuthService struct {
	repo     ports.UserRepository
	tokens   TokenIssuer
	adminKey string
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(repo ports.UserRepository, tokens TokenIssuer, adminKey string, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, adminKey: adminKey, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return "", domain.Validation("Please enter all fields.")
	}
	if !domain.IsEmail(email) {
		return "", domain.Validation("Please fill a valid email address.")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return "", domain.Conflict("User with this email already exists.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.Persistence("hash password", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleEmployee,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return "", err
	}

	logFor(ctx, s.log).Info().Str("user_id", user.ID).Msg("user registered")
	return s.issue("register", user.ID, user.Role, user.Name)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", domain.Validation("Please enter all fields.")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.AuthFailuresTotal.WithLabelValues("unknown_email").Inc()
			return "", domain.Validation("No account found with this email.")
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthFailuresTotal.WithLabelValues("bad_password").Inc()
		return "", domain.Validation("Incorrect password.")
	}

	return s.issue("password", user.ID, user.Role, user.Name)
}

// AdminLogin opens an ephemeral admin session. Nothing is written to storage;
// the session id is never a valid record id, so downstream code can tell the
// identity apart from persisted users.
func (s *AuthService) AdminLogin(ctx context.Context, adminName, adminKey string) (string, error) {
	adminName = strings.TrimSpace(adminName)
	if adminName == "" || adminKey == "" {
		return "", domain.Validation("Admin name and key are required.")
	}
	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.adminKey)) != 1 {
		metrics.AuthFailuresTotal.WithLabelValues("bad_admin_key").Inc()
		return "", domain.Unauthenticated("Invalid admin key.")
	}

	id, err := ksuid.NewRandomWithTime(s.now())
	if err != nil {
		return "", domain.Persistence("generate admin session id", err)
	}

	logFor(ctx, s.log).Info().Str("admin_name", adminName).Msg("admin session opened")
	return s.issue("admin_key", adminSessionPrefix+id.String(), domain.RoleAdmin, adminName)
}

func (s *AuthService) issue(method, id string, role domain.Role, name string) (string, error) {
	tok, err := s.tokens.Issue(id, role, name)
	if err != nil {
		return "", domain.Persistence("issue token", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(method).Inc()
	return tok, nil
}
