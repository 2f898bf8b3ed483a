package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Placeholder figures reported until real data sources exist for them.
const (
	PlaceholderPopulation      = 450000
	PlaceholderAshaWorkerCount = 142
	PlaceholderComplianceScore = 88
	FallbackRiskScore          = 45
)

// DistrictDashboard aggregates intake and risk figures for one district.
type DistrictDashboard struct {
	DistrictID           uuid.UUID       `json:"district_id"`
	DistrictName         string          `json:"district_name"`
	StateName            string          `json:"state_name"`
	TotalReports         int64           `json:"total_reports"`
	ActiveAlerts         int64           `json:"active_alerts"`
	RiskScore            decimal.Decimal `json:"risk_score"`
	RiskScoreSource      string          `json:"risk_score_source"` // latest or fallback
	Population           int             `json:"population"`
	AshaWorkerCount      int             `json:"asha_worker_count"`
	ComplianceScore      int             `json:"compliance_score"`
	UnimplementedMetrics []string        `json:"unimplemented_metrics"`
}

// DistrictReportStats is one row of the state-wide breakdown.
type DistrictReportStats struct {
	ID            uuid.UUID `json:"id"`
	DistrictName  string    `json:"district_name"`
	ReportCount   int64     `json:"report_count"`
	HighRiskCount int64     `json:"high_risk_count"`
}

// StateDashboard aggregates intake across all districts.
type StateDashboard struct {
	TotalReports  int64                 `json:"total_reports"`
	VerifiedCases int64                 `json:"verified_cases"`
	ActiveAlerts  int64                 `json:"active_alerts"`
	Districts     []DistrictReportStats `json:"districts"`
}
