package model

import (
	"time"

	"github.com/google/uuid"
)

// Directive is an instruction issued to a district and optionally a village.
type Directive struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IssuedByID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"issued_by"`
	IssuedBy         User              `gorm:"foreignKey:IssuedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TargetDistrictID *uuid.UUID        `gorm:"type:uuid;index" json:"target_district_id"`
	TargetDistrict   *DistrictBoundary `gorm:"foreignKey:TargetDistrictID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TargetVillageID  *uuid.UUID        `gorm:"type:uuid;index" json:"target_village_id"`
	TargetVillage    *VillageBoundary  `gorm:"foreignKey:TargetVillageID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title            string            `gorm:"type:varchar(200);not null" json:"title"`
	Description      string            `gorm:"type:text;not null" json:"description"`
	Priority         string            `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	IsActive         bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// StateAdvisory is a state-level guidance note.
type StateAdvisory struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StateAdminID          uuid.UUID `gorm:"type:uuid;not null;index" json:"state_admin"`
	StateAdmin            User      `gorm:"foreignKey:StateAdminID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title                 string    `gorm:"type:varchar(200);not null" json:"title"`
	Description           string    `gorm:"type:text;not null" json:"description"`
	BudgetRecommendations string    `gorm:"type:text" json:"budget_recommendations"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
