package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCommunity     = "Community"
	RoleASHA          = "ASHA"
	RoleDoctor        = "Doctor"
	RoleDistrictAdmin = "District Admin"
	RoleStateAdmin    = "State Admin"
	RoleSuperAdmin    = "Super Admin"
)

// DefaultRoles are seeded at startup.
var DefaultRoles = []Role{
	{Name: RoleCommunity, Description: "Community member - can report symptoms and view health info"},
	{Name: RoleASHA, Description: "ASHA Worker - community health worker"},
	{Name: RoleDoctor, Description: "Medical professional at PHC/CHC"},
	{Name: RoleDistrictAdmin, Description: "District health officer"},
	{Name: RoleStateAdmin, Description: "State-level health authority"},
	{Name: RoleSuperAdmin, Description: "System administrator"},
}

// Role is a named capability group attached to users through user_roles.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
