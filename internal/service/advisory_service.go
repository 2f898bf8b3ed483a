package service

import (
	"context"
	"fmt"
	"strings"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"
)

type AdvisoryRequest struct {
	Title                 string `json:"title" binding:"required,max=200"`
	Description           string `json:"description" binding:"required"`
	BudgetRecommendations string `json:"budget_recommendations"`
}

type UpdateAdvisoryRequest struct {
	Title                 *string `json:"title"`
	Description           *string `json:"description"`
	BudgetRecommendations *string `json:"budget_recommendations"`
}

type AdvisoryResponse struct {
	ID                    string `json:"id"`
	StateAdmin            string `json:"state_admin"`
	StateAdminName        string `json:"state_admin_name"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	BudgetRecommendations string `json:"budget_recommendations"`
	CreatedAt             string `json:"created_at"`
}

type AdvisoryService interface {
	Create(ctx context.Context, caller auth.Identity, req AdvisoryRequest) (*AdvisoryResponse, error)
	Get(ctx context.Context, id string) (*AdvisoryResponse, error)
	List(ctx context.Context, params ListParams) ([]AdvisoryResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateAdvisoryRequest) (*AdvisoryResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type advisoryService struct {
	advisories repository.AdvisoryRepository
	audit      AuditRecorder
	txManager  repository.TransactionManager
}

func NewAdvisoryService(advisories repository.AdvisoryRepository, audit AuditRecorder, txManager repository.TransactionManager) AdvisoryService {
	return &advisoryService{advisories: advisories, audit: audit, txManager: txManager}
}

func (s *advisoryService) Create(ctx context.Context, caller auth.Identity, req AdvisoryRequest) (*AdvisoryResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("advisories require a state administrator role")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperror.Validation("title and description are required")
	}

	advisory := &model.StateAdvisory{
		StateAdminID:          caller.UserID,
		Title:                 req.Title,
		Description:           req.Description,
		BudgetRecommendations: req.BudgetRecommendations,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.advisories.Create(txCtx, advisory); err != nil {
			return fmt.Errorf("failed to create advisory: %w", err)
		}
		admin := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &admin,
			Action:   model.ActionAdvisoryIssued,
			Target:   advisory.Title,
			EntityID: advisory.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, advisory.ID.String())
}

func (s *advisoryService) Get(ctx context.Context, id string) (*AdvisoryResponse, error) {
	advisoryID, err := parseID(id, "advisory")
	if err != nil {
		return nil, err
	}
	a, err := s.advisories.FindByID(ctx, advisoryID)
	if err != nil {
		return nil, lookupErr(err, "Advisory")
	}
	resp := toAdvisoryResponse(a)
	return &resp, nil
}

func (s *advisoryService) List(ctx context.Context, params ListParams) ([]AdvisoryResponse, int64, error) {
	advisories, total, err := s.advisories.List(ctx, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list advisories: %w", err)
	}
	out := make([]AdvisoryResponse, 0, len(advisories))
	for i := range advisories {
		out = append(out, toAdvisoryResponse(&advisories[i]))
	}
	return out, total, nil
}

func (s *advisoryService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateAdvisoryRequest) (*AdvisoryResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("advisories require a state administrator role")
	}
	advisoryID, err := parseID(id, "advisory")
	if err != nil {
		return nil, err
	}
	a, err := s.advisories.FindByID(ctx, advisoryID)
	if err != nil {
		return nil, lookupErr(err, "Advisory")
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.BudgetRecommendations != nil {
		a.BudgetRecommendations = *req.BudgetRecommendations
	}
	if err := s.advisories.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update advisory: %w", err)
	}
	resp := toAdvisoryResponse(a)
	return &resp, nil
}

func (s *advisoryService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.CanAdministerState() {
		return apperror.Permission("advisories require a state administrator role")
	}
	advisoryID, err := parseID(id, "advisory")
	if err != nil {
		return err
	}
	if err := s.advisories.Delete(ctx, advisoryID); err != nil {
		return lookupErr(err, "Advisory")
	}
	return nil
}

func toAdvisoryResponse(a *model.StateAdvisory) AdvisoryResponse {
	return AdvisoryResponse{
		ID:                    a.ID.String(),
		StateAdmin:            a.StateAdminID.String(),
		StateAdminName:        a.StateAdmin.Username,
		Title:                 a.Title,
		Description:           a.Description,
		BudgetRecommendations: a.BudgetRecommendations,
		CreatedAt:             formatTime(a.CreatedAt),
	}
}
