package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicrm/crm-api/internal/core/domain"
)

const employeeID = "64b7f0c2a1b2c3d4e5f60718"

var (
	admin     = domain.NewCaller("64b7f0c2a1b2c3d4e5f60700", domain.RoleAdmin, "Ada")
	tempAdmin = domain.NewCaller("admin_session_x", domain.RoleAdmin, "Ops")
	employee  = domain.NewCaller(employeeID, domain.RoleEmployee, "Eve")
)

func TestResolve_AdminOnlyOperations(t *testing.T) {
	for _, op := range []Operation{UserList, CustomerCreate, CustomerList, CustomerGet, CustomerUpdate, CustomerDelete, LeadCreate, LeadDelete} {
		access, err := Resolve(op, admin)
		require.NoError(t, err, op)
		assert.Equal(t, Full, access, op)

		access, err = Resolve(op, tempAdmin)
		require.NoError(t, err, op)
		assert.Equal(t, Full, access, op)

		access, err = Resolve(op, employee)
		assert.ErrorIs(t, err, domain.ErrForbidden, op)
		assert.Equal(t, Denied, access, op)
	}
}

func TestResolve_EmployeeOwnedOperations(t *testing.T) {
	for _, op := range []Operation{LeadList, LeadUpdate, LeadStats} {
		access, err := Resolve(op, employee)
		require.NoError(t, err, op)
		assert.Equal(t, Owned, access, op)
	}
}

func TestResolve_UnknownOperationOrRole(t *testing.T) {
	_, err := Resolve(Operation("lead.export"), admin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	guest := domain.NewCaller(employeeID, domain.Role("guest"), "G")
	_, err = Resolve(LeadList, guest)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthorize_Ownership(t *testing.T) {
	access, err := Authorize(LeadUpdate, employee, employeeID)
	require.NoError(t, err)
	assert.Equal(t, Owned, access)

	_, err = Authorize(LeadUpdate, employee, "64b7f0c2a1b2c3d4e5f60799")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	access, err = Authorize(LeadUpdate, admin, "64b7f0c2a1b2c3d4e5f60799")
	require.NoError(t, err)
	assert.Equal(t, Full, access)
}
