package model

import (
	"time"

	"github.com/google/uuid"
)

// DistrictBoundary is an administrative district.
type DistrictBoundary struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DistrictName string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"district_name"`
	StateName    string            `gorm:"type:varchar(100);not null" json:"state_name"`
	Villages     []VillageBoundary `gorm:"foreignKey:DistrictID" json:"-"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// VillageBoundary belongs to exactly one district.
type VillageBoundary struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VillageName string           `gorm:"type:varchar(100);not null" json:"village_name"`
	DistrictID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"district_id"`
	District    DistrictBoundary `gorm:"foreignKey:DistrictID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
