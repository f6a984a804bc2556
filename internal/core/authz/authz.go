// Package authz holds the operation table that decides which callers may
// perform which operation, and the single function that evaluates it.
//
// A rule grants either full access (any record) or owned access (only records
// whose owner is the caller). Route middleware checks the role half of a rule
// before the handler runs; services re-check against the loaded record's owner.
package authz

import (
	"github.com/minicrm/crm-api/internal/core/domain"
)

// Operation names a protected action.
type Operation string

const (
	UserList Operation = "user.list"

	CustomerCreate Operation = "customer.create"
	CustomerList   Operation = "customer.list"
	CustomerGet    Operation = "customer.get"
	CustomerUpdate Operation = "customer.update"
	CustomerDelete Operation = "customer.delete"

	LeadCreate Operation = "lead.create"
	LeadList   Operation = "lead.list"
	LeadUpdate Operation = "lead.update"
	LeadDelete Operation = "lead.delete"
	LeadStats  Operation = "lead.stats"
)

// Access is the outcome of an authorization check.
type Access int

const (
	Denied Access = iota
	// Owned restricts the caller to records it owns.
	Owned
	Full
)

// Rule lists the roles granted full and owned access for one operation.
type Rule struct {
	Full  []domain.Role
	Owned []domain.Role
}

var admins = []domain.Role{domain.RoleAdmin}

// Table is the authorization table. Operations missing from it are denied.
var Table = map[Operation]Rule{
	UserList: {Full: admins},

	CustomerCreate: {Full: admins},
	CustomerList:   {Full: admins},
	CustomerGet:    {Full: admins},
	CustomerUpdate: {Full: admins},
	CustomerDelete: {Full: admins},

	LeadCreate: {Full: admins},
	LeadDelete: {Full: admins},
	LeadList:   {Full: admins, Owned: []domain.Role{domain.RoleEmployee}},
	LeadUpdate: {Full: admins, Owned: []domain.Role{domain.RoleEmployee}},
	LeadStats:  {Full: admins, Owned: []domain.Role{domain.RoleEmployee}},
}

// Resolve returns the widest access the caller's role allows for op,
// independent of any particular record.
func Resolve(op Operation, caller domain.Caller) (Access, error) {
	rule, ok := Table[op]
	if !ok {
		return Denied, domain.Forbidden("Access denied.")
	}
	switch {
	case hasRole(rule.Full, caller.Role):
		return Full, nil
	case hasRole(rule.Owned, caller.Role) && caller.ID != "":
		return Owned, nil
	}
	return Denied, domain.Forbidden("Access denied.")
}

// Authorize checks op against a specific record owned by ownerID.
func Authorize(op Operation, caller domain.Caller, ownerID string) (Access, error) {
	access, err := Resolve(op, caller)
	if err != nil {
		return Denied, err
	}
	if access == Owned && ownerID != caller.ID {
		return Denied, domain.Forbidden("Not authorized to access this record.")
	}
	return access, nil
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
