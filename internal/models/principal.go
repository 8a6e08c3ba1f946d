package models

import (
	"errors"
	"fmt"
)

// Role is the authorization role of an identity.
type Role string

const (
	RoleWorker     Role = "worker"     // Sales floor staff
	RoleAdmin      Role = "admin"      // Store administrator
	RoleSuperAdmin Role = "superadmin" // Owner, can manage admins
)

// ErrInvalidIdentity is returned when an identity does not have the expected shape.
var ErrInvalidIdentity = errors.New("invalid identity")

// Valid returns true if the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Identity is the authenticated subject as issued by the server.
// It is immutable for the lifetime of a session.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

// Validate checks the identity has an id, an email and a known role.
func (i *Identity) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: missing", ErrInvalidIdentity)
	}
	if i.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidIdentity)
	}
	if i.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidIdentity)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, i.Role)
	}
	return nil
}

// DisplayName returns the name if set, otherwise the email.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}
