package auth

import (
	"surveillance/internal/model"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by services.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
	Staff    bool // is_staff or is_superuser
}

// IdentityFromUser builds the identity carried in tokens.
func IdentityFromUser(u *model.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Roles:    u.RoleNames(),
		Staff:    u.IsAdmin(),
	}
}

// HasRole reports whether any of roles is held. Staff always pass.
func (i Identity) HasRole(roles ...string) bool {
	if i.Staff {
		return true
	}
	for _, held := range i.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports Django-style admin privilege.
func (i Identity) IsAdmin() bool { return i.Staff }

// CanReview covers verification, report transitions and clinical annotation.
func (i Identity) CanReview() bool {
	return i.HasRole(model.RoleDoctor, model.RoleDistrictAdmin, model.RoleStateAdmin, model.RoleSuperAdmin)
}

// CanAdministerDistrict covers directives, alerts and risk scores.
func (i Identity) CanAdministerDistrict() bool {
	return i.HasRole(model.RoleDistrictAdmin, model.RoleStateAdmin, model.RoleSuperAdmin)
}

// CanAdministerState covers state advisories.
func (i Identity) CanAdministerState() bool {
	return i.HasRole(model.RoleStateAdmin, model.RoleSuperAdmin)
}
