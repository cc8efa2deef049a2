package auth

import (
	"fmt"

	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
)

// ValidRole reports whether role is one of admin, staff or client.
func ValidRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleStaff, models.RoleClient:
		return true
	}
	return false
}

// CanWrite is the single capability check for every mutating operation.
// Only admins may create, update or delete projects and their records.
func CanWrite(role string) bool {
	return role == models.RoleAdmin
}

// CanRead reports whether role may view projects. Any signed-in role can.
func CanRead(role string) bool {
	return ValidRole(role)
}

// RequireWrite returns an ErrForbidden error unless p may write.
func RequireWrite(p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("auth: not signed in: %w", apperr.ErrForbidden)
	}
	if !CanWrite(p.Role) {
		return fmt.Errorf("auth: role %q cannot modify projects: %w", p.Role, apperr.ErrForbidden)
	}
	return nil
}
