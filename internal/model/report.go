package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ReportSubmitted = "SUBMITTED"
	ReportVerified  = "VERIFIED"
	ReportRejected  = "REJECTED"
	ReportEscalated = "ESCALATED"
	ReportClosed    = "CLOSED"
)

// ReportTransitions lists the legal status edges of an AshaReport.
var ReportTransitions = map[string][]string{
	ReportSubmitted: {ReportVerified, ReportRejected, ReportEscalated},
	ReportVerified:  {ReportClosed},
	ReportRejected:  {ReportClosed},
	ReportEscalated: {ReportClosed},
}

// CanTransition reports whether from -> to is a legal report status edge.
func CanTransition(from, to string) bool {
	for _, next := range ReportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Symptoms is the structured payload an ASHA worker records for a case.
type Symptoms struct {
	Severity    string   `json:"severity"`
	PatientName string   `json:"patientName,omitempty"`
	Symptoms    []string `json:"symptoms"`
}

// IsHighSeverity matches "high" and "critical" regardless of case.
func (s Symptoms) IsHighSeverity() bool {
	switch strings.ToLower(strings.TrimSpace(s.Severity)) {
	case "high", "critical":
		return true
	}
	return false
}

// AshaReport is a field case report.
type AshaReport struct {
	ID           uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID                    `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User                         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DistrictID   *uuid.UUID                   `gorm:"type:uuid;index" json:"district_id"`
	District     *DistrictBoundary            `gorm:"foreignKey:DistrictID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	VillageID    *uuid.UUID                   `gorm:"type:uuid;index" json:"village_id"`
	Village      *VillageBoundary             `gorm:"foreignKey:VillageID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	SymptomsJSON datatypes.JSONType[Symptoms] `gorm:"column:symptoms_json;type:jsonb;not null" json:"symptoms_json"`
	Status       string                       `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	VerifiedBy   *uuid.UUID                   `gorm:"type:uuid" json:"verified_by"`
	Verifier     *User                        `gorm:"foreignKey:VerifiedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	VerifiedAt   *time.Time                   `json:"verified_at"`
	CreatedAt    time.Time                    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

// Severity returns the raw severity recorded in the symptoms payload.
func (r *AshaReport) Severity() string {
	return r.SymptomsJSON.Data().Severity
}

// IsProcessed is true once a report has left intake.
func (r *AshaReport) IsProcessed() bool {
	switch r.Status {
	case ReportVerified, ReportEscalated, ReportClosed:
		return true
	}
	return false
}

// WaterQualityReading is a field water sample measurement.
type WaterQualityReading struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VillageID *uuid.UUID       `gorm:"type:uuid;index" json:"village_id"`
	Village   *VillageBoundary `gorm:"foreignKey:VillageID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	TDS       float64          `gorm:"not null" json:"tds"`
	PH        float64          `gorm:"column:ph;not null" json:"ph"`
	Turbidity float64          `gorm:"not null" json:"turbidity"`
	Timestamp time.Time        `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
}
