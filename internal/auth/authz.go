package auth

import (
	"slices"

	"github.com/wolfeidau/stockroom/internal/models"
)

// Permission represents a feature a role may use
type Permission string

const (
	PermProductsList   Permission = "products:list"
	PermProductsCreate Permission = "products:create"
	PermSalesCreate    Permission = "sales:create"
	PermPaymentsCreate Permission = "payments:create"
	PermReportsView    Permission = "reports:view"
	PermWorkersCreate  Permission = "workers:create"
)

// Role sets used to guard features.
var (
	// AnyRole admits every authenticated identity.
	AnyRole = []models.Role{models.RoleWorker, models.RoleAdmin, models.RoleSuperAdmin}

	// AdminRoles admits administrators only.
	AdminRoles = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
)

// RolePermissions maps roles to the features they can reach.
// The server enforces its own rules; this only decides what the client offers.
var RolePermissions = map[models.Role][]Permission{
	models.RoleSuperAdmin: {
		PermProductsList,
		PermProductsCreate,
		PermSalesCreate,
		PermPaymentsCreate,
		PermReportsView,
		PermWorkersCreate,
	},
	models.RoleAdmin: {
		PermProductsList,
		PermProductsCreate,
		PermSalesCreate,
		PermPaymentsCreate,
		PermReportsView,
		PermWorkersCreate,
	},
	models.RoleWorker: {
		PermProductsList,
		PermProductsCreate,
		PermSalesCreate,
		PermPaymentsCreate,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role models.Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// Permissions returns the permissions of a role in a stable order.
func Permissions(role models.Role) []Permission {
	perms := slices.Clone(RolePermissions[role])
	slices.Sort(perms)
	return perms
}

// RoleAllowed reports whether role is in allowed. An empty allowed set admits any role.
func RoleAllowed(role models.Role, allowed []models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, role)
}
