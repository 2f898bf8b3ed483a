package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionRegistrationSubmitted = "REGISTRATION_SUBMITTED"
	ActionRegistrationApproved  = "REGISTRATION_APPROVED"
	ActionRegistrationRejected  = "REGISTRATION_REJECTED"
	ActionVerifiedReport        = "VERIFIED_REPORT"
	ActionReportStatusPrefix    = "REPORT_"
	ActionClinicalReportCreated = "CLINICAL_REPORT_CREATED"
	ActionDirectiveIssued       = "DIRECTIVE_ISSUED"
	ActionAdvisoryIssued        = "ADVISORY_ISSUED"
	ActionAlertRaised           = "ALERT_RAISED"
)

// AuditLog tracks Who, What, and When for critical system changes. Rows are never updated.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil for anonymous or system actions
	User      *User          `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Action    string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Target    string         `gorm:"type:varchar(255)" json:"target"`
	EntityID  string         `gorm:"type:varchar(50);index" json:"entity_id"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
}
