package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wolfeidau/stockroom/internal/models"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role     models.Role
		perm     Permission
		expected bool
	}{
		{models.RoleWorker, PermProductsList, true},
		{models.RoleWorker, PermSalesCreate, true},
		{models.RoleWorker, PermReportsView, false},
		{models.RoleWorker, PermWorkersCreate, false},
		{models.RoleAdmin, PermReportsView, true},
		{models.RoleAdmin, PermWorkersCreate, true},
		{models.RoleSuperAdmin, PermReportsView, true},
		{models.Role("unknown"), PermProductsList, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.expected, HasPermission(tt.role, tt.perm))
		})
	}
}

func TestRoleAllowed(t *testing.T) {
	assert.True(t, RoleAllowed(models.RoleWorker, nil))
	assert.True(t, RoleAllowed(models.RoleAdmin, AdminRoles))
	assert.False(t, RoleAllowed(models.RoleWorker, AdminRoles))
	assert.True(t, RoleAllowed(models.RoleWorker, AnyRole))
}

func TestPermissions_Sorted(t *testing.T) {
	perms := Permissions(models.RoleWorker)
	assert.Equal(t, []Permission{PermPaymentsCreate, PermProductsCreate, PermProductsList, PermSalesCreate}, perms)
	assert.Empty(t, Permissions(models.Role("nobody")))
}
