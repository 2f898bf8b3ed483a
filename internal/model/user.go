package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can authenticate. Accounts created from a registration
// carry the approver and approval time.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username    string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName   string         `gorm:"type:varchar(150)" json:"first_name"`
	LastName    string         `gorm:"type:varchar(150)" json:"last_name"`
	Phone       string         `gorm:"type:varchar(20)" json:"phone_number"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	IsStaff     bool           `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool           `gorm:"not null;default:false" json:"is_superuser"`
	IsApproved  bool           `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy  *uuid.UUID     `gorm:"type:uuid" json:"approved_by"`
	Approver    *User          `gorm:"foreignKey:ApprovedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	Roles       []Role         `gorm:"many2many:user_roles;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"roles"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports Django-style admin privilege.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// RoleNames flattens the attached roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
