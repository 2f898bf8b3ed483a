package service

import (
	"context"
	"fmt"

	"surveillance/internal/model"
	"surveillance/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	alertTitleFormat       = "High Severity Case Reported in %s"
	alertDescriptionFormat = "A high severity case was reported by %s. Symptoms suggest immediate attention required. Risk score updated."
	alertFallbackPlace     = "District"
)

// AlertRule raises an Outbreak Risk alert for high or critical intake. It runs inside
// the report's transaction so the alert commits or rolls back with the report.
type AlertRule struct {
	boundaries repository.BoundaryRepository
	alerts     repository.AlertRepository
	audit      AuditRecorder
	log        *zap.Logger
}

func NewAlertRule(boundaries repository.BoundaryRepository, alerts repository.AlertRepository, audit AuditRecorder, log *zap.Logger) *AlertRule {
	return &AlertRule{boundaries: boundaries, alerts: alerts, audit: audit, log: log}
}

// Apply returns the created alert, or nil when the report does not qualify or no district exists.
func (r *AlertRule) Apply(ctx context.Context, report *model.AshaReport, reporter string, village *model.VillageBoundary) (*model.DistrictAlert, error) {
	if !report.SymptomsJSON.Data().IsHighSeverity() {
		return nil, nil
	}

	districtID, err := r.resolveDistrict(ctx, report, village)
	if err != nil {
		return nil, err
	}
	if districtID == uuid.Nil {
		r.log.Warn("no district available for high severity report, alert skipped", zap.String("report_id", report.ID.String()))
		return nil, nil
	}

	place := alertFallbackPlace
	if village != nil && village.VillageName != "" {
		place = village.VillageName
	}

	alert := &model.DistrictAlert{
		DistrictID:  districtID,
		AlertType:   model.AlertTypeOutbreakRisk,
		Title:       fmt.Sprintf(alertTitleFormat, place),
		Description: fmt.Sprintf(alertDescriptionFormat, reporter),
		Status:      model.AlertOpen,
	}
	if err := r.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	reporterID := report.UserID
	if err := r.audit.Record(ctx, AuditEntry{
		UserID:   &reporterID,
		Action:   model.ActionAlertRaised,
		Target:   alert.Title,
		EntityID: alert.ID.String(),
		Details:  map[string]interface{}{"report_id": report.ID.String(), "severity": report.Severity()},
	}); err != nil {
		return nil, err
	}
	return alert, nil
}

// resolveDistrict picks the report's district, then the village's, then the first district by name.
func (r *AlertRule) resolveDistrict(ctx context.Context, report *model.AshaReport, village *model.VillageBoundary) (uuid.UUID, error) {
	if report.DistrictID != nil {
		return *report.DistrictID, nil
	}
	if village != nil {
		return village.DistrictID, nil
	}

	first, err := r.boundaries.FirstDistrict(ctx)
	if isNotFound(err) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load fallback district: %w", err)
	}
	r.log.Warn("report has no location, alert attributed to first district",
		zap.String("report_id", report.ID.String()),
		zap.String("district", first.DistrictName),
	)
	return first.ID, nil
}
