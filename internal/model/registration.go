package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RegistrationPending  = "PENDING"
	RegistrationApproved = "APPROVED"
	RegistrationRejected = "REJECTED"
)

// UserRegistration is a self-service signup awaiting admin review.
// Status only moves PENDING -> APPROVED or PENDING -> REJECTED.
type UserRegistration struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username        string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"type:varchar(255);not null" json:"email"`
	FirstName       string     `gorm:"type:varchar(150)" json:"first_name"`
	LastName        string     `gorm:"type:varchar(150)" json:"last_name"`
	Phone           string     `gorm:"type:varchar(20)" json:"phone_number"`
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	RequestedRoleID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_role_id"`
	RequestedRole   Role       `gorm:"foreignKey:RequestedRoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"requested_role"`
	Reason          string     `gorm:"type:text" json:"reason"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AdminNotes      string     `gorm:"type:text" json:"admin_notes"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer        *User      `gorm:"foreignKey:ReviewedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
