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

// --- DTOs ---

type DistrictRequest struct {
	DistrictName string `json:"district_name" binding:"required,max=100"`
	StateName    string `json:"state_name" binding:"required,max=100"`
}

type VillageRequest struct {
	VillageName string `json:"village_name" binding:"required,max=100"`
	DistrictID  string `json:"district" binding:"required"`
}

type DistrictResponse struct {
	ID           string `json:"id"`
	DistrictName string `json:"district_name"`
	StateName    string `json:"state_name"`
	CreatedAt    string `json:"created_at"`
}

type VillageResponse struct {
	ID           string `json:"id"`
	VillageName  string `json:"village_name"`
	DistrictID   string `json:"district"`
	DistrictName string `json:"district_name"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type BoundaryService interface {
	ListDistricts(ctx context.Context, params ListParams) ([]DistrictResponse, int64, error)
	GetDistrict(ctx context.Context, id string) (*DistrictResponse, error)
	CreateDistrict(ctx context.Context, caller auth.Identity, req DistrictRequest) (*DistrictResponse, error)
	UpdateDistrict(ctx context.Context, caller auth.Identity, id string, req DistrictRequest) (*DistrictResponse, error)

	ListVillages(ctx context.Context, districtID *string, params ListParams) ([]VillageResponse, int64, error)
	GetVillage(ctx context.Context, id string) (*VillageResponse, error)
	CreateVillage(ctx context.Context, caller auth.Identity, req VillageRequest) (*VillageResponse, error)
	UpdateVillage(ctx context.Context, caller auth.Identity, id string, req VillageRequest) (*VillageResponse, error)
}

type boundaryService struct {
	repo repository.BoundaryRepository
}

func NewBoundaryService(repo repository.BoundaryRepository) BoundaryService {
	return &boundaryService{repo: repo}
}

// --- Districts ---

func (s *boundaryService) ListDistricts(ctx context.Context, params ListParams) ([]DistrictResponse, int64, error) {
	districts, total, err := s.repo.ListDistricts(ctx, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list districts: %w", err)
	}
	out := make([]DistrictResponse, 0, len(districts))
	for i := range districts {
		out = append(out, toDistrictResponse(&districts[i]))
	}
	return out, total, nil
}

func (s *boundaryService) GetDistrict(ctx context.Context, id string) (*DistrictResponse, error) {
	districtID, err := parseID(id, "district")
	if err != nil {
		return nil, err
	}
	d, err := s.repo.FindDistrict(ctx, districtID)
	if err != nil {
		return nil, lookupErr(err, "District")
	}
	resp := toDistrictResponse(d)
	return &resp, nil
}

func (s *boundaryService) CreateDistrict(ctx context.Context, caller auth.Identity, req DistrictRequest) (*DistrictResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("Admin permission required")
	}
	d := &model.DistrictBoundary{
		DistrictName: strings.TrimSpace(req.DistrictName),
		StateName:    strings.TrimSpace(req.StateName),
	}
	if d.DistrictName == "" || d.StateName == "" {
		return nil, apperror.Validation("district_name and state_name are required")
	}
	if err := s.repo.CreateDistrict(ctx, d); err != nil {
		return nil, writeErr(err, "create district", "A district with this name already exists")
	}
	resp := toDistrictResponse(d)
	return &resp, nil
}

func (s *boundaryService) UpdateDistrict(ctx context.Context, caller auth.Identity, id string, req DistrictRequest) (*DistrictResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("Admin permission required")
	}
	districtID, err := parseID(id, "district")
	if err != nil {
		return nil, err
	}
	d, err := s.repo.FindDistrict(ctx, districtID)
	if err != nil {
		return nil, lookupErr(err, "District")
	}
	if name := strings.TrimSpace(req.DistrictName); name != "" {
		d.DistrictName = name
	}
	if state := strings.TrimSpace(req.StateName); state != "" {
		d.StateName = state
	}
	if err := s.repo.UpdateDistrict(ctx, d); err != nil {
		return nil, writeErr(err, "update district", "A district with this name already exists")
	}
	resp := toDistrictResponse(d)
	return &resp, nil
}

// --- Villages ---

func (s *boundaryService) ListVillages(ctx context.Context, districtID *string, params ListParams) ([]VillageResponse, int64, error) {
	filter, err := parseOptionalID(districtID, "district")
	if err != nil {
		return nil, 0, err
	}
	villages, total, err := s.repo.ListVillages(ctx, filter, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list villages: %w", err)
	}
	out := make([]VillageResponse, 0, len(villages))
	for i := range villages {
		out = append(out, toVillageResponse(&villages[i]))
	}
	return out, total, nil
}

func (s *boundaryService) GetVillage(ctx context.Context, id string) (*VillageResponse, error) {
	villageID, err := parseID(id, "village")
	if err != nil {
		return nil, err
	}
	v, err := s.repo.FindVillage(ctx, villageID)
	if err != nil {
		return nil, lookupErr(err, "Village")
	}
	resp := toVillageResponse(v)
	return &resp, nil
}

func (s *boundaryService) CreateVillage(ctx context.Context, caller auth.Identity, req VillageRequest) (*VillageResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("Admin permission required")
	}
	name := strings.TrimSpace(req.VillageName)
	if name == "" {
		return nil, apperror.Validation("village_name is required")
	}
	district, err := s.requireDistrict(ctx, req.DistrictID)
	if err != nil {
		return nil, err
	}

	v := &model.VillageBoundary{VillageName: name, DistrictID: district.ID, District: *district}
	if err := s.repo.CreateVillage(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create village: %w", err)
	}
	resp := toVillageResponse(v)
	return &resp, nil
}

func (s *boundaryService) UpdateVillage(ctx context.Context, caller auth.Identity, id string, req VillageRequest) (*VillageResponse, error) {
	if !caller.CanAdministerState() {
		return nil, apperror.Permission("Admin permission required")
	}
	villageID, err := parseID(id, "village")
	if err != nil {
		return nil, err
	}
	v, err := s.repo.FindVillage(ctx, villageID)
	if err != nil {
		return nil, lookupErr(err, "Village")
	}
	if name := strings.TrimSpace(req.VillageName); name != "" {
		v.VillageName = name
	}
	if strings.TrimSpace(req.DistrictID) != "" {
		district, err := s.requireDistrict(ctx, req.DistrictID)
		if err != nil {
			return nil, err
		}
		v.DistrictID = district.ID
		v.District = *district
	}
	if err := s.repo.UpdateVillage(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update village: %w", err)
	}
	resp := toVillageResponse(v)
	return &resp, nil
}

// requireDistrict resolves a district reference in a payload; unknown ids are a validation failure.
func (s *boundaryService) requireDistrict(ctx context.Context, raw string) (*model.DistrictBoundary, error) {
	districtID, err := parseID(raw, "district")
	if err != nil {
		return nil, err
	}
	district, err := s.repo.FindDistrict(ctx, districtID)
	if isNotFound(err) {
		return nil, apperror.Validation("district %s does not exist", districtID)
	}
	if err != nil {
		return nil, lookupErr(err, "District")
	}
	return district, nil
}

// --- Helpers ---

func toDistrictResponse(d *model.DistrictBoundary) DistrictResponse {
	return DistrictResponse{
		ID:           d.ID.String(),
		DistrictName: d.DistrictName,
		StateName:    d.StateName,
		CreatedAt:    formatTime(d.CreatedAt),
	}
}

func toVillageResponse(v *model.VillageBoundary) VillageResponse {
	return VillageResponse{
		ID:           v.ID.String(),
		VillageName:  v.VillageName,
		DistrictID:   v.DistrictID.String(),
		DistrictName: v.District.DistrictName,
		CreatedAt:    formatTime(v.CreatedAt),
	}
}

func districtName(d *model.DistrictBoundary) string {
	if d == nil {
		return ""
	}
	return d.DistrictName
}

func villageName(v *model.VillageBoundary) string {
	if v == nil {
		return ""
	}
	return v.VillageName
}
