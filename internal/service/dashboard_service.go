package service

import (
	"context"
	"fmt"

	"surveillance/internal/model"
	"surveillance/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	RiskSourceLatest   = "latest"
	RiskSourceFallback = "fallback"
)

// placeholderMetrics are reported as fixed figures until a data source exists for them.
var placeholderMetrics = []string{"asha_worker_count", "compliance_score", "population"}

type DashboardService interface {
	District(ctx context.Context, districtID string) (*model.DistrictDashboard, error)
	State(ctx context.Context) (*model.StateDashboard, error)
}

type dashboardService struct {
	stats      repository.StatisticsRepository
	boundaries repository.BoundaryRepository
	scores     repository.RiskScoreRepository
}

func NewDashboardService(stats repository.StatisticsRepository, boundaries repository.BoundaryRepository, scores repository.RiskScoreRepository) DashboardService {
	return &dashboardService{stats: stats, boundaries: boundaries, scores: scores}
}

func (s *dashboardService) District(ctx context.Context, districtID string) (*model.DistrictDashboard, error) {
	id, err := parseID(districtID, "district")
	if err != nil {
		return nil, err
	}
	district, err := s.boundaries.FindDistrict(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "District")
	}

	total, err := s.stats.CountReports(ctx, &id, "")
	if err != nil {
		return nil, err
	}
	// Active alerts here are open high-severity intake, not DistrictAlert rows.
	active, err := s.stats.CountHighSeverity(ctx, &id, model.ReportSubmitted)
	if err != nil {
		return nil, err
	}

	score, source := decimal.NewFromInt(model.FallbackRiskScore), RiskSourceFallback
	latest, err := s.scores.LatestForDistrict(ctx, id)
	switch {
	case err == nil:
		score, source = latest.ScoreValue, RiskSourceLatest
	case !isNotFound(err):
		return nil, fmt.Errorf("failed to load risk score: %w", err)
	}

	return &model.DistrictDashboard{
		DistrictID:           district.ID,
		DistrictName:         district.DistrictName,
		StateName:            district.StateName,
		TotalReports:         total,
		ActiveAlerts:         active,
		RiskScore:            score,
		RiskScoreSource:      source,
		Population:           model.PlaceholderPopulation,
		AshaWorkerCount:      model.PlaceholderAshaWorkerCount,
		ComplianceScore:      model.PlaceholderComplianceScore,
		UnimplementedMetrics: placeholderMetrics,
	}, nil
}

func (s *dashboardService) State(ctx context.Context) (*model.StateDashboard, error) {
	total, err := s.stats.CountReports(ctx, nil, "")
	if err != nil {
		return nil, err
	}
	verified, err := s.stats.CountReports(ctx, nil, model.ReportVerified)
	if err != nil {
		return nil, err
	}
	open, err := s.stats.CountAlerts(ctx, model.AlertOpen)
	if err != nil {
		return nil, err
	}
	districts, err := s.stats.DistrictBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	if districts == nil {
		districts = []model.DistrictReportStats{}
	}

	return &model.StateDashboard{
		TotalReports:  total,
		VerifiedCases: verified,
		ActiveAlerts:  open,
		Districts:     districts,
	}, nil
}
