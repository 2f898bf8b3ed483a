package repository

import (
	"context"
	"fmt"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// highSeverityExpr matches the severity key of symptoms_json case-insensitively.
const highSeverityExpr = "LOWER(asha_reports.symptoms_json->>'severity') = 'high'"

type StatisticsRepository interface {
	CountReports(ctx context.Context, districtID *uuid.UUID, status string) (int64, error)
	// CountHighSeverity counts high-severity reports still in status.
	CountHighSeverity(ctx context.Context, districtID *uuid.UUID, status string) (int64, error)
	CountAlerts(ctx context.Context, status string) (int64, error)
	DistrictBreakdown(ctx context.Context) ([]model.DistrictReportStats, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) reports(ctx context.Context, districtID *uuid.UUID, status string) *gorm.DB {
	query := GetDB(ctx, r.db).Model(&model.AshaReport{})
	if districtID != nil {
		query = query.Where("asha_reports.district_id = ?", *districtID)
	}
	if status != "" {
		query = query.Where("asha_reports.status = ?", status)
	}
	return query
}

func (r *statisticsRepository) CountReports(ctx context.Context, districtID *uuid.UUID, status string) (int64, error) {
	var count int64
	if err := r.reports(ctx, districtID, status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

func (r *statisticsRepository) CountHighSeverity(ctx context.Context, districtID *uuid.UUID, status string) (int64, error) {
	var count int64
	if err := r.reports(ctx, districtID, status).Where(highSeverityExpr).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count high severity reports: %w", err)
	}
	return count, nil
}

func (r *statisticsRepository) CountAlerts(ctx context.Context, status string) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.DistrictAlert{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// DistrictBreakdown returns one row per district, including districts without reports.
func (r *statisticsRepository) DistrictBreakdown(ctx context.Context) ([]model.DistrictReportStats, error) {
	var rows []model.DistrictReportStats
	if err := GetDB(ctx, r.db).Table("district_boundaries").
		Select("district_boundaries.id as id, district_boundaries.district_name as district_name, " +
			"COUNT(asha_reports.id) as report_count, " +
			"COUNT(asha_reports.id) FILTER (WHERE " + highSeverityExpr + ") as high_risk_count").
		Joins("LEFT JOIN asha_reports ON asha_reports.district_id = district_boundaries.id").
		Group("district_boundaries.id, district_boundaries.district_name").
		Order("district_boundaries.district_name asc").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate district statistics: %w", err)
	}
	return rows, nil
}
