package service

import (
	"context"
	"fmt"
	"strings"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
)

type DirectiveRequest struct {
	Title            string  `json:"title" binding:"required,max=200"`
	Description      string  `json:"description" binding:"required"`
	Priority         string  `json:"priority"`
	IsActive         *bool   `json:"is_active"`
	TargetDistrictID *string `json:"target_district"`
	TargetVillageID  *string `json:"target_village"`
}

type UpdateDirectiveRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	Priority         *string `json:"priority"`
	IsActive         *bool   `json:"is_active"`
	TargetDistrictID *string `json:"target_district"`
	TargetVillageID  *string `json:"target_village"`
}

type DirectiveQuery struct {
	DistrictID *string
	Active     *bool
}

type DirectiveResponse struct {
	ID                 string  `json:"id"`
	IssuedBy           string  `json:"issued_by"`
	IssuedByName       string  `json:"issued_by_name"`
	TargetDistrictID   *string `json:"target_district"`
	TargetDistrictName string  `json:"target_district_name"`
	TargetVillageID    *string `json:"target_village"`
	TargetVillageName  string  `json:"target_village_name"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Priority           string  `json:"priority"`
	IsActive           bool    `json:"is_active"`
	CreatedAt          string  `json:"created_at"`
}

type DirectiveService interface {
	Create(ctx context.Context, caller auth.Identity, req DirectiveRequest) (*DirectiveResponse, error)
	Get(ctx context.Context, id string) (*DirectiveResponse, error)
	List(ctx context.Context, query DirectiveQuery, params ListParams) ([]DirectiveResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateDirectiveRequest) (*DirectiveResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type directiveService struct {
	directives repository.DirectiveRepository
	boundaries repository.BoundaryRepository
	audit      AuditRecorder
	txManager  repository.TransactionManager
}

func NewDirectiveService(
	directives repository.DirectiveRepository,
	boundaries repository.BoundaryRepository,
	audit AuditRecorder,
	txManager repository.TransactionManager,
) DirectiveService {
	return &directiveService{directives: directives, boundaries: boundaries, audit: audit, txManager: txManager}
}

func (s *directiveService) Create(ctx context.Context, caller auth.Identity, req DirectiveRequest) (*DirectiveResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("directives require a district or state administrator role")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperror.Validation("title and description are required")
	}
	priority := model.PriorityMedium
	if strings.TrimSpace(req.Priority) != "" {
		p, err := normalizePriority(req.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}
	districtID, villageID, err := s.resolveTarget(ctx, req.TargetDistrictID, req.TargetVillageID)
	if err != nil {
		return nil, err
	}

	directive := &model.Directive{
		IssuedByID:       caller.UserID,
		TargetDistrictID: districtID,
		TargetVillageID:  villageID,
		Title:            req.Title,
		Description:      req.Description,
		Priority:         priority,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.directives.Create(txCtx, directive); err != nil {
			return fmt.Errorf("failed to create directive: %w", err)
		}
		// is_active defaults to true in the column; an explicit false must be written after insert.
		if !directive.IsActive {
			if err := s.directives.Update(txCtx, directive); err != nil {
				return fmt.Errorf("failed to create directive: %w", err)
			}
		}
		issuer := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &issuer,
			Action:   model.ActionDirectiveIssued,
			Target:   directive.Title,
			EntityID: directive.ID.String(),
			Details:  map[string]interface{}{"priority": directive.Priority},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, directive.ID.String())
}

func (s *directiveService) Get(ctx context.Context, id string) (*DirectiveResponse, error) {
	directiveID, err := parseID(id, "directive")
	if err != nil {
		return nil, err
	}
	d, err := s.directives.FindByID(ctx, directiveID)
	if err != nil {
		return nil, lookupErr(err, "Directive")
	}
	resp := toDirectiveResponse(d)
	return &resp, nil
}

func (s *directiveService) List(ctx context.Context, query DirectiveQuery, params ListParams) ([]DirectiveResponse, int64, error) {
	districtID, err := parseOptionalID(query.DistrictID, "district")
	if err != nil {
		return nil, 0, err
	}
	directives, total, err := s.directives.List(ctx, repository.DirectiveFilter{
		DistrictID: districtID,
		Active:     query.Active,
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list directives: %w", err)
	}
	out := make([]DirectiveResponse, 0, len(directives))
	for i := range directives {
		out = append(out, toDirectiveResponse(&directives[i]))
	}
	return out, total, nil
}

func (s *directiveService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateDirectiveRequest) (*DirectiveResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("directives require a district or state administrator role")
	}
	directiveID, err := parseID(id, "directive")
	if err != nil {
		return nil, err
	}
	d, err := s.directives.FindByID(ctx, directiveID)
	if err != nil {
		return nil, lookupErr(err, "Directive")
	}

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Priority != nil {
		p, err := normalizePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		d.Priority = p
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if req.TargetDistrictID != nil || req.TargetVillageID != nil {
		districtRaw, villageRaw := req.TargetDistrictID, req.TargetVillageID
		if districtRaw == nil {
			districtRaw = uuidString(d.TargetDistrictID)
		}
		if villageRaw == nil {
			villageRaw = uuidString(d.TargetVillageID)
		}
		districtID, villageID, err := s.resolveTarget(ctx, districtRaw, villageRaw)
		if err != nil {
			return nil, err
		}
		d.TargetDistrictID, d.TargetVillageID = districtID, villageID
	}

	if err := s.directives.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update directive: %w", err)
	}
	return s.Get(ctx, d.ID.String())
}

func (s *directiveService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.CanAdministerDistrict() {
		return apperror.Permission("directives require a district or state administrator role")
	}
	directiveID, err := parseID(id, "directive")
	if err != nil {
		return err
	}
	if err := s.directives.Delete(ctx, directiveID); err != nil {
		return lookupErr(err, "Directive")
	}
	return nil
}

// resolveTarget validates the optional district and village. A village must sit in the district when both are set.
func (s *directiveService) resolveTarget(ctx context.Context, districtRaw, villageRaw *string) (*uuid.UUID, *uuid.UUID, error) {
	districtID, err := parseOptionalID(districtRaw, "district")
	if err != nil {
		return nil, nil, err
	}
	villageID, err := parseOptionalID(villageRaw, "village")
	if err != nil {
		return nil, nil, err
	}

	if districtID != nil {
		if _, err := s.boundaries.FindDistrict(ctx, *districtID); err != nil {
			if isNotFound(err) {
				return nil, nil, apperror.Validation("district %s does not exist", districtID)
			}
			return nil, nil, lookupErr(err, "District")
		}
	}
	if villageID != nil {
		village, err := s.boundaries.FindVillage(ctx, *villageID)
		if err != nil {
			if isNotFound(err) {
				return nil, nil, apperror.Validation("village %s does not exist", villageID)
			}
			return nil, nil, lookupErr(err, "Village")
		}
		if districtID != nil && village.DistrictID != *districtID {
			return nil, nil, apperror.Validation("village %s does not belong to the target district", village.VillageName)
		}
	}
	return districtID, villageID, nil
}

func toDirectiveResponse(d *model.Directive) DirectiveResponse {
	return DirectiveResponse{
		ID:                 d.ID.String(),
		IssuedBy:           d.IssuedByID.String(),
		IssuedByName:       d.IssuedBy.Username,
		TargetDistrictID:   uuidString(d.TargetDistrictID),
		TargetDistrictName: districtName(d.TargetDistrict),
		TargetVillageID:    uuidString(d.TargetVillageID),
		TargetVillageName:  villageName(d.TargetVillage),
		Title:              d.Title,
		Description:        d.Description,
		Priority:           d.Priority,
		IsActive:           d.IsActive,
		CreatedAt:          formatTime(d.CreatedAt),
	}
}
