package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/events"
	"surveillance/internal/export"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// --- DTOs ---

type CreateReportRequest struct {
	DistrictID   *string         `json:"district"`
	VillageID    *string         `json:"village"`
	SymptomsJSON *model.Symptoms `json:"symptoms_json" binding:"required"`
}

// UpdateReportRequest never carries a status; status moves only through Verify and Transition.
type UpdateReportRequest struct {
	DistrictID   *string         `json:"district"`
	VillageID    *string         `json:"village"`
	SymptomsJSON *model.Symptoms `json:"symptoms_json"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReportQuery struct {
	Status     string
	DistrictID *string
	VillageID  *string
}

type ReportResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user"`
	Username       string         `json:"username"`
	DistrictID     *string        `json:"district"`
	DistrictName   string         `json:"district_name"`
	VillageID      *string        `json:"village"`
	VillageName    string         `json:"village_name"`
	SymptomsJSON   model.Symptoms `json:"symptoms_json"`
	Status         string         `json:"status"`
	VerifiedBy     *string        `json:"verified_by"`
	VerifiedByName string         `json:"verified_by_name"`
	VerifiedAt     *string        `json:"verified_at"`
	IsProcessed    bool           `json:"is_processed"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// ExportResult is a rendered workbook; ArchiveKey is set when it was also stored remotely.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	ArchiveKey  string
}

// ReportArchiver stores generated exports.
type ReportArchiver interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// --- Interface ---

type ReportService interface {
	Create(ctx context.Context, caller auth.Identity, req CreateReportRequest) (*ReportResponse, error)
	Get(ctx context.Context, id string) (*ReportResponse, error)
	List(ctx context.Context, query ReportQuery, params ListParams) ([]ReportResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateReportRequest) (*ReportResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
	Verify(ctx context.Context, caller auth.Identity, id string) (*ReportResponse, error)
	Transition(ctx context.Context, caller auth.Identity, id string, status string) (*ReportResponse, error)
	Export(ctx context.Context, caller auth.Identity, districtID *string) (*ExportResult, error)
}

type reportService struct {
	reports    repository.ReportRepository
	boundaries repository.BoundaryRepository
	rule       *AlertRule
	audit      AuditRecorder
	txManager  repository.TransactionManager
	publisher  events.Publisher
	archiver   ReportArchiver
	log        *zap.Logger
	now        func() time.Time
}

// NewReportService wires intake. archiver may be nil, in which case exports are not archived.
func NewReportService(
	reports repository.ReportRepository,
	boundaries repository.BoundaryRepository,
	rule *AlertRule,
	audit AuditRecorder,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	archiver ReportArchiver,
	log *zap.Logger,
) ReportService {
	return &reportService{
		reports:    reports,
		boundaries: boundaries,
		rule:       rule,
		audit:      audit,
		txManager:  txManager,
		publisher:  publisher,
		archiver:   archiver,
		log:        log,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *reportService) Create(ctx context.Context, caller auth.Identity, req CreateReportRequest) (*ReportResponse, error) {
	if err := validateSymptoms(req.SymptomsJSON); err != nil {
		return nil, err
	}
	loc, err := s.resolveLocation(ctx, req.DistrictID, req.VillageID)
	if err != nil {
		return nil, err
	}

	report := &model.AshaReport{
		UserID:       caller.UserID,
		DistrictID:   loc.districtID,
		VillageID:    loc.villageID,
		SymptomsJSON: datatypes.NewJSONType(*req.SymptomsJSON),
		Status:       model.ReportSubmitted,
	}

	var alert *model.DistrictAlert
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.reports.Create(txCtx, report); err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		alert, err = s.rule.Apply(txCtx, report, caller.Username, loc.village)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("username", caller.Username),
		zap.String("severity", report.Severity()),
	)
	s.publisher.Publish(ctx, events.New(events.ReportCreated, report.ID, report.DistrictID, map[string]string{
		"severity": report.Severity(),
		"status":   report.Status,
	}))
	if alert != nil {
		s.log.Warn("outbreak alert raised", zap.String("alert_id", alert.ID.String()), zap.String("title", alert.Title))
		districtID := alert.DistrictID
		s.publisher.Publish(ctx, events.New(events.AlertCreated, alert.ID, &districtID, toAlertResponse(alert)))
	}

	return s.Get(ctx, report.ID.String())
}

func (s *reportService) Get(ctx context.Context, id string) (*ReportResponse, error) {
	reportID, err := parseID(id, "report")
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, lookupErr(err, "Report")
	}
	resp := toReportResponse(report)
	return &resp, nil
}

func (s *reportService) List(ctx context.Context, query ReportQuery, params ListParams) ([]ReportResponse, int64, error) {
	filter, err := s.reportFilter(query)
	if err != nil {
		return nil, 0, err
	}
	filter.Page, filter.Limit = params.Page, params.Limit

	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	return out, total, nil
}

func (s *reportService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateReportRequest) (*ReportResponse, error) {
	reportID, err := parseID(id, "report")
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, lookupErr(err, "Report")
	}
	if report.UserID != caller.UserID && !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("only the reporter or an administrator can modify this report")
	}

	if req.SymptomsJSON != nil {
		if err := validateSymptoms(req.SymptomsJSON); err != nil {
			return nil, err
		}
		report.SymptomsJSON = datatypes.NewJSONType(*req.SymptomsJSON)
	}
	if req.DistrictID != nil || req.VillageID != nil {
		districtRaw, villageRaw := req.DistrictID, req.VillageID
		if districtRaw == nil {
			districtRaw = uuidString(report.DistrictID)
		}
		if villageRaw == nil {
			villageRaw = uuidString(report.VillageID)
		}
		loc, err := s.resolveLocation(ctx, districtRaw, villageRaw)
		if err != nil {
			return nil, err
		}
		report.DistrictID, report.VillageID = loc.districtID, loc.villageID
	}

	if err := s.reports.UpdateDetails(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return s.Get(ctx, report.ID.String())
}

func (s *reportService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	reportID, err := parseID(id, "report")
	if err != nil {
		return err
	}
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return lookupErr(err, "Report")
	}
	if report.UserID != caller.UserID && !caller.CanAdministerDistrict() {
		return apperror.Permission("only the reporter or an administrator can delete this report")
	}
	if err := s.reports.Delete(ctx, reportID); err != nil {
		return lookupErr(err, "Report")
	}
	return nil
}

func (s *reportService) Verify(ctx context.Context, caller auth.Identity, id string) (*ReportResponse, error) {
	if !caller.CanReview() {
		return nil, apperror.Permission("verification requires a doctor or administrator role")
	}
	reportID, err := parseID(id, "report")
	if err != nil {
		return nil, err
	}

	var report *model.AshaReport
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		report, err = s.reports.FindByID(txCtx, reportID)
		if err != nil {
			return lookupErr(err, "Report")
		}
		if report.Status != model.ReportSubmitted {
			return apperror.State("Report is already %s", strings.ToLower(report.Status))
		}

		now := s.now()
		verifier := caller.UserID
		won, err := s.reports.TransitionStatus(txCtx, report.ID, model.ReportSubmitted, model.ReportVerified, &verifier, &now)
		if err != nil {
			return fmt.Errorf("failed to verify report: %w", err)
		}
		if !won {
			return apperror.State("Report was modified concurrently")
		}

		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &verifier,
			Action:   model.ActionVerifiedReport,
			Target:   reportAuditTarget(report),
			EntityID: report.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("report verified", zap.String("report_id", report.ID.String()), zap.String("verifier", caller.Username))
	s.publisher.Publish(ctx, events.New(events.ReportVerified, report.ID, report.DistrictID, map[string]string{
		"verified_by": caller.Username,
	}))
	return s.Get(ctx, report.ID.String())
}

func (s *reportService) Transition(ctx context.Context, caller auth.Identity, id string, status string) (*ReportResponse, error) {
	if !caller.CanReview() {
		return nil, apperror.Permission("status changes require a doctor or administrator role")
	}
	reportID, err := parseID(id, "report")
	if err != nil {
		return nil, err
	}
	to := strings.ToUpper(strings.TrimSpace(status))
	if _, known := model.ReportTransitions[to]; !known && to != model.ReportClosed {
		return nil, apperror.Validation("invalid status %q", status)
	}

	var report *model.AshaReport
	var from string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		report, err = s.reports.FindByID(txCtx, reportID)
		if err != nil {
			return lookupErr(err, "Report")
		}
		from = report.Status
		if to == model.ReportVerified || !model.CanTransition(from, to) {
			return apperror.State("cannot move report from %s to %s", from, to)
		}

		won, err := s.reports.TransitionStatus(txCtx, report.ID, from, to, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to update report status: %w", err)
		}
		if !won {
			return apperror.State("Report was modified concurrently")
		}

		actor := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &actor,
			Action:   model.ActionReportStatusPrefix + to,
			Target:   reportAuditTarget(report),
			EntityID: report.ID.String(),
			Details:  map[string]interface{}{"from": from, "to": to},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.New(events.ReportStatusChanged, report.ID, report.DistrictID, map[string]string{
		"from": from,
		"to":   to,
	}))
	return s.Get(ctx, report.ID.String())
}

func (s *reportService) Export(ctx context.Context, caller auth.Identity, districtID *string) (*ExportResult, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("report export requires an administrator role")
	}
	filter, err := s.reportFilter(ReportQuery{DistrictID: districtID})
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	data, err := export.ReportsWorkbook(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	now := s.now().UTC()
	result := &ExportResult{
		Filename:    fmt.Sprintf("asha_reports_%s.xlsx", now.Format("20060102_150405")),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}
	if s.archiver != nil {
		key := fmt.Sprintf("exports/%s/%s", now.Format("2006/01/02"), result.Filename)
		if err := s.archiver.Put(ctx, key, result.ContentType, data); err != nil {
			s.log.Error("failed to archive report export", zap.String("key", key), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	s.log.Info("reports exported", zap.Int("count", len(reports)), zap.String("username", caller.Username))
	return result, nil
}

// --- Helpers ---

type location struct {
	districtID *uuid.UUID
	villageID  *uuid.UUID
	village    *model.VillageBoundary
}

// resolveLocation checks that referenced boundaries exist and agree. A lone village implies its district.
func (s *reportService) resolveLocation(ctx context.Context, districtRaw, villageRaw *string) (location, error) {
	var loc location
	districtID, err := parseOptionalID(districtRaw, "district")
	if err != nil {
		return loc, err
	}
	villageID, err := parseOptionalID(villageRaw, "village")
	if err != nil {
		return loc, err
	}

	if districtID != nil {
		if _, err := s.boundaries.FindDistrict(ctx, *districtID); err != nil {
			if isNotFound(err) {
				return loc, apperror.Validation("district %s does not exist", districtID)
			}
			return loc, lookupErr(err, "District")
		}
		loc.districtID = districtID
	}

	if villageID != nil {
		village, err := s.boundaries.FindVillage(ctx, *villageID)
		if err != nil {
			if isNotFound(err) {
				return loc, apperror.Validation("village %s does not exist", villageID)
			}
			return loc, lookupErr(err, "Village")
		}
		if districtID != nil && village.DistrictID != *districtID {
			return loc, apperror.Validation("village %s does not belong to district %s", village.VillageName, districtID)
		}
		loc.villageID = villageID
		loc.village = village
		if loc.districtID == nil {
			derived := village.DistrictID
			loc.districtID = &derived
		}
	}
	return loc, nil
}

func (s *reportService) reportFilter(q ReportQuery) (repository.ReportFilter, error) {
	districtID, err := parseOptionalID(q.DistrictID, "district")
	if err != nil {
		return repository.ReportFilter{}, err
	}
	villageID, err := parseOptionalID(q.VillageID, "village")
	if err != nil {
		return repository.ReportFilter{}, err
	}
	return repository.ReportFilter{
		Status:     strings.ToUpper(strings.TrimSpace(q.Status)),
		DistrictID: districtID,
		VillageID:  villageID,
	}, nil
}

func validateSymptoms(sym *model.Symptoms) error {
	if sym == nil {
		return apperror.Validation("symptoms_json is required")
	}
	if strings.TrimSpace(sym.Severity) == "" {
		return apperror.Validation("symptoms_json.severity is required")
	}
	return nil
}

func reportAuditTarget(r *model.AshaReport) string {
	severity := r.Severity()
	if severity == "" {
		severity = "Unknown"
	}
	return fmt.Sprintf("Report #%s (%s)", r.ID, severity)
}

func toReportResponse(r *model.AshaReport) ReportResponse {
	resp := ReportResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Username:     r.User.Username,
		DistrictID:   uuidString(r.DistrictID),
		DistrictName: districtName(r.District),
		VillageID:    uuidString(r.VillageID),
		VillageName:  villageName(r.Village),
		SymptomsJSON: r.SymptomsJSON.Data(),
		Status:       r.Status,
		VerifiedBy:   uuidString(r.VerifiedBy),
		VerifiedAt:   formatTimePtr(r.VerifiedAt),
		IsProcessed:  r.IsProcessed(),
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
	if r.Verifier != nil {
		resp.VerifiedByName = r.Verifier.Username
	}
	return resp
}
