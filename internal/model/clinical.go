package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// ClinicalReport is a doctor's annotation of one AshaReport.
type ClinicalReport struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AshaReportID uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"asha_report_id"`
	AshaReport   AshaReport `gorm:"foreignKey:AshaReportID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DoctorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Doctor       User       `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Diagnosis    string     `gorm:"type:text;not null" json:"diagnosis"`
	AdvisoryText string     `gorm:"type:text;not null" json:"advisory_text"`
	Priority     string     `gorm:"type:varchar(20);not null" json:"priority"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
