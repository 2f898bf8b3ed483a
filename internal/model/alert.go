package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AlertTypeOutbreakRisk = "Outbreak Risk"

	AlertOpen         = "Open"
	AlertAcknowledged = "Acknowledged"
	AlertResolved     = "Resolved"
)

// DistrictAlert is a district-scoped warning, usually raised by the high-severity rule.
type DistrictAlert struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DistrictID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"district_id"`
	District    DistrictBoundary `gorm:"foreignKey:DistrictID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AlertType   string           `gorm:"type:varchar(50);not null" json:"alert_type"`
	Title       string           `gorm:"type:varchar(200);not null" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Status      string           `gorm:"type:varchar(20);not null;default:'Open';index" json:"status"`
	CreatedAt   time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// ClassifyRisk buckets a 0-100 score.
func ClassifyRisk(score decimal.Decimal) string {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return RiskHigh
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return RiskModerate
	default:
		return RiskLow
	}
}

// RiskScore is a point-in-time outbreak risk figure for a district.
type RiskScore struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DistrictID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"district_id"`
	District       DistrictBoundary `gorm:"foreignKey:DistrictID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ScoreValue     decimal.Decimal  `gorm:"type:decimal(6,2);not null" json:"score_value"`
	Classification string           `gorm:"type:varchar(20);not null" json:"classification"`
	CreatedAt      time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}
