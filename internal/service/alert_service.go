package service

import (
	"context"
	"fmt"
	"strings"

	"surveillance/internal/auth"
	"surveillance/internal/events"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"go.uber.org/zap"
)

type AlertRequest struct {
	DistrictID  string `json:"district" binding:"required"`
	AlertType   string `json:"alert_type"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
}

type UpdateAlertRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type AlertQuery struct {
	DistrictID *string
	Status     string
}

type AlertResponse struct {
	ID           string `json:"id"`
	DistrictID   string `json:"district"`
	DistrictName string `json:"district_name"`
	AlertType    string `json:"alert_type"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// alertTransitions is the alert lifecycle; Resolved is terminal.
var alertTransitions = map[string][]string{
	model.AlertOpen:         {model.AlertAcknowledged, model.AlertResolved},
	model.AlertAcknowledged: {model.AlertResolved},
}

type AlertService interface {
	Create(ctx context.Context, caller auth.Identity, req AlertRequest) (*AlertResponse, error)
	Get(ctx context.Context, id string) (*AlertResponse, error)
	List(ctx context.Context, query AlertQuery, params ListParams) ([]AlertResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateAlertRequest) (*AlertResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type alertService struct {
	alerts     repository.AlertRepository
	boundaries repository.BoundaryRepository
	audit      AuditRecorder
	txManager  repository.TransactionManager
	publisher  events.Publisher
	log        *zap.Logger
}

func NewAlertService(
	alerts repository.AlertRepository,
	boundaries repository.BoundaryRepository,
	audit AuditRecorder,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	log *zap.Logger,
) AlertService {
	return &alertService{
		alerts:     alerts,
		boundaries: boundaries,
		audit:      audit,
		txManager:  txManager,
		publisher:  publisher,
		log:        log,
	}
}

func (s *alertService) Create(ctx context.Context, caller auth.Identity, req AlertRequest) (*AlertResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("alerts require a district or state administrator role")
	}
	districtID, err := parseID(req.DistrictID, "district")
	if err != nil {
		return nil, err
	}
	district, err := s.boundaries.FindDistrict(ctx, districtID)
	if isNotFound(err) {
		return nil, apperror.Validation("district %s does not exist", districtID)
	}
	if err != nil {
		return nil, lookupErr(err, "District")
	}

	alertType := strings.TrimSpace(req.AlertType)
	if alertType == "" {
		alertType = model.AlertTypeOutbreakRisk
	}
	alert := &model.DistrictAlert{
		DistrictID:  district.ID,
		District:    *district,
		AlertType:   alertType,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.AlertOpen,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.alerts.Create(txCtx, alert); err != nil {
			return fmt.Errorf("failed to create alert: %w", err)
		}
		actor := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &actor,
			Action:   model.ActionAlertRaised,
			Target:   alert.Title,
			EntityID: alert.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toAlertResponse(alert)
	s.log.Info("alert raised", zap.String("alert_id", resp.ID), zap.String("district", district.DistrictName))
	s.publisher.Publish(ctx, events.New(events.AlertCreated, alert.ID, &alert.DistrictID, resp))
	return &resp, nil
}

func (s *alertService) Get(ctx context.Context, id string) (*AlertResponse, error) {
	alertID, err := parseID(id, "alert")
	if err != nil {
		return nil, err
	}
	alert, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, lookupErr(err, "Alert")
	}
	resp := toAlertResponse(alert)
	return &resp, nil
}

func (s *alertService) List(ctx context.Context, query AlertQuery, params ListParams) ([]AlertResponse, int64, error) {
	districtID, err := parseOptionalID(query.DistrictID, "district")
	if err != nil {
		return nil, 0, err
	}
	alerts, total, err := s.alerts.List(ctx, repository.AlertFilter{
		DistrictID: districtID,
		Status:     strings.TrimSpace(query.Status),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	out := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, toAlertResponse(&alerts[i]))
	}
	return out, total, nil
}

func (s *alertService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateAlertRequest) (*AlertResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("alerts require a district or state administrator role")
	}
	alertID, err := parseID(id, "alert")
	if err != nil {
		return nil, err
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		alert, err := s.alerts.FindByID(txCtx, alertID)
		if err != nil {
			return lookupErr(err, "Alert")
		}
		next := alert.Status
		if req.Status != nil {
			if next, err = nextAlertStatus(alert.Status, *req.Status); err != nil {
				return err
			}
		}

		if req.Title != nil || req.Description != nil {
			title, description := alert.Title, alert.Description
			if req.Title != nil {
				title = *req.Title
			}
			if req.Description != nil {
				description = *req.Description
			}
			if err := s.alerts.UpdateDetails(txCtx, alert.ID, title, description); err != nil {
				return fmt.Errorf("failed to update alert: %w", err)
			}
		}

		if next != alert.Status {
			won, err := s.alerts.TransitionStatus(txCtx, alert.ID, alert.Status, next)
			if err != nil {
				return fmt.Errorf("failed to update alert status: %w", err)
			}
			if !won {
				return apperror.State("Alert was modified concurrently")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, alertID.String())
}

func (s *alertService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.CanAdministerDistrict() {
		return apperror.Permission("alerts require a district or state administrator role")
	}
	alertID, err := parseID(id, "alert")
	if err != nil {
		return err
	}
	if err := s.alerts.Delete(ctx, alertID); err != nil {
		return lookupErr(err, "Alert")
	}
	return nil
}

func nextAlertStatus(from, raw string) (string, error) {
	var to string
	for _, known := range []string{model.AlertOpen, model.AlertAcknowledged, model.AlertResolved} {
		if strings.EqualFold(known, strings.TrimSpace(raw)) {
			to = known
		}
	}
	if to == "" {
		return "", apperror.Validation("invalid alert status %q", raw)
	}
	if to == from {
		return to, nil
	}
	for _, allowed := range alertTransitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return "", apperror.State("cannot move alert from %s to %s", from, to)
}

func toAlertResponse(a *model.DistrictAlert) AlertResponse {
	return AlertResponse{
		ID:           a.ID.String(),
		DistrictID:   a.DistrictID.String(),
		DistrictName: a.District.DistrictName,
		AlertType:    a.AlertType,
		Title:        a.Title,
		Description:  a.Description,
		Status:       a.Status,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}
