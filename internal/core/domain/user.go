package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the authorization role carried in a token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User is a persisted account. Every registered user is an employee.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsRecordID reports whether id has the shape of a stored document key.
func IsRecordID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// CallerKind tags how a caller identity was established.
type CallerKind int

const (
	// CallerPersisted is backed by a stored User record.
	CallerPersisted CallerKind = iota
	// CallerEphemeral is an admin session opened with the shared admin key.
	CallerEphemeral
)

// Caller is the identity derived from a verified token.
type Caller struct {
	Kind CallerKind
	ID   string // user id, or session id for ephemeral callers
	Role Role
	Name string
}

// NewCaller builds a Caller from token claims. The identity is ephemeral
// exactly when id is not a valid record id.
func NewCaller(id string, role Role, name string) Caller {
	kind := CallerPersisted
	if !IsRecordID(id) {
		kind = CallerEphemeral
	}
	return Caller{Kind: kind, ID: id, Role: role, Name: name}
}

func (c Caller) IsTemporary() bool { return c.Kind == CallerEphemeral }

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// UserRef returns the id usable as a foreign key to a User, or "" for
// ephemeral callers.
func (c Caller) UserRef() string {
	if c.Kind != CallerPersisted {
		return ""
	}
	return c.ID
}
