package service

import (
	"context"
	"fmt"
	"strings"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"go.uber.org/zap"
)

type CreateClinicalRequest struct {
	AshaReportID string `json:"asha_report" binding:"required"`
	Diagnosis    string `json:"diagnosis" binding:"required"`
	AdvisoryText string `json:"advisory_text" binding:"required"`
	Priority     string `json:"priority" binding:"required"`
}

type UpdateClinicalRequest struct {
	Diagnosis    *string `json:"diagnosis"`
	AdvisoryText *string `json:"advisory_text"`
	Priority     *string `json:"priority"`
}

type ClinicalResponse struct {
	ID           string `json:"id"`
	AshaReportID string `json:"asha_report"`
	DoctorID     string `json:"doctor"`
	DoctorName   string `json:"doctor_name"`
	Diagnosis    string `json:"diagnosis"`
	AdvisoryText string `json:"advisory_text"`
	Priority     string `json:"priority"`
	CreatedAt    string `json:"created_at"`
}

const duplicateClinicalMsg = "A clinical report already exists for this field report"

type ClinicalService interface {
	Create(ctx context.Context, caller auth.Identity, req CreateClinicalRequest) (*ClinicalResponse, error)
	Get(ctx context.Context, id string) (*ClinicalResponse, error)
	List(ctx context.Context, params ListParams) ([]ClinicalResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateClinicalRequest) (*ClinicalResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type clinicalService struct {
	clinical  repository.ClinicalRepository
	reports   repository.ReportRepository
	audit     AuditRecorder
	txManager repository.TransactionManager
	log       *zap.Logger
}

func NewClinicalService(
	clinical repository.ClinicalRepository,
	reports repository.ReportRepository,
	audit AuditRecorder,
	txManager repository.TransactionManager,
	log *zap.Logger,
) ClinicalService {
	return &clinicalService{clinical: clinical, reports: reports, audit: audit, txManager: txManager, log: log}
}

func (s *clinicalService) Create(ctx context.Context, caller auth.Identity, req CreateClinicalRequest) (*ClinicalResponse, error) {
	if !caller.CanReview() {
		return nil, apperror.Permission("clinical reports require a doctor or administrator role")
	}
	reportID, err := parseID(req.AshaReportID, "report")
	if err != nil {
		return nil, err
	}
	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	entry := &model.ClinicalReport{
		AshaReportID: reportID,
		DoctorID:     caller.UserID,
		Diagnosis:    req.Diagnosis,
		AdvisoryText: req.AdvisoryText,
		Priority:     priority,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.reports.FindByID(txCtx, reportID); err != nil {
			return lookupErr(err, "Report")
		}
		exists, err := s.clinical.ExistsForReport(txCtx, reportID)
		if err != nil {
			return fmt.Errorf("failed to check clinical report: %w", err)
		}
		if exists {
			return apperror.Conflict(duplicateClinicalMsg)
		}
		if err := s.clinical.Create(txCtx, entry); err != nil {
			return writeErr(err, "create clinical report", duplicateClinicalMsg)
		}

		doctor := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &doctor,
			Action:   model.ActionClinicalReportCreated,
			Target:   fmt.Sprintf("Report #%s (%s)", reportID, priority),
			EntityID: entry.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("clinical report created", zap.String("report_id", reportID.String()), zap.String("doctor", caller.Username))
	return s.Get(ctx, entry.ID.String())
}

func (s *clinicalService) Get(ctx context.Context, id string) (*ClinicalResponse, error) {
	entryID, err := parseID(id, "clinical report")
	if err != nil {
		return nil, err
	}
	entry, err := s.clinical.FindByID(ctx, entryID)
	if err != nil {
		return nil, lookupErr(err, "Clinical report")
	}
	resp := toClinicalResponse(entry)
	return &resp, nil
}

func (s *clinicalService) List(ctx context.Context, params ListParams) ([]ClinicalResponse, int64, error) {
	entries, total, err := s.clinical.List(ctx, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clinical reports: %w", err)
	}
	out := make([]ClinicalResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toClinicalResponse(&entries[i]))
	}
	return out, total, nil
}

func (s *clinicalService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateClinicalRequest) (*ClinicalResponse, error) {
	entry, err := s.authored(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.Diagnosis != nil {
		entry.Diagnosis = *req.Diagnosis
	}
	if req.AdvisoryText != nil {
		entry.AdvisoryText = *req.AdvisoryText
	}
	if req.Priority != nil {
		priority, err := normalizePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		entry.Priority = priority
	}
	if err := s.clinical.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update clinical report: %w", err)
	}
	resp := toClinicalResponse(entry)
	return &resp, nil
}

func (s *clinicalService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	entry, err := s.authored(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.clinical.Delete(ctx, entry.ID); err != nil {
		return lookupErr(err, "Clinical report")
	}
	return nil
}

func (s *clinicalService) authored(ctx context.Context, caller auth.Identity, id string) (*model.ClinicalReport, error) {
	entryID, err := parseID(id, "clinical report")
	if err != nil {
		return nil, err
	}
	entry, err := s.clinical.FindByID(ctx, entryID)
	if err != nil {
		return nil, lookupErr(err, "Clinical report")
	}
	if entry.DoctorID != caller.UserID && !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("only the authoring doctor or an administrator can modify this clinical report")
	}
	return entry, nil
}

func normalizePriority(raw string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(raw))
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical:
		return p, nil
	}
	return "", apperror.Validation("invalid priority %q: must be LOW, MEDIUM, HIGH or CRITICAL", raw)
}

func toClinicalResponse(c *model.ClinicalReport) ClinicalResponse {
	return ClinicalResponse{
		ID:           c.ID.String(),
		AshaReportID: c.AshaReportID.String(),
		DoctorID:     c.DoctorID.String(),
		DoctorName:   c.Doctor.Username,
		Diagnosis:    c.Diagnosis,
		AdvisoryText: c.AdvisoryText,
		Priority:     c.Priority,
		CreatedAt:    formatTime(c.CreatedAt),
	}
}
