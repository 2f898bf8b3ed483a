package service

import (
	"context"
	"fmt"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"
)

type WaterQualityRequest struct {
	VillageID *string    `json:"village"`
	TDS       *float64   `json:"tds"`
	PH        *float64   `json:"ph"`
	Turbidity *float64   `json:"turbidity"`
	Timestamp *time.Time `json:"timestamp"`
}

type WaterQualityQuery struct {
	VillageID *string
	Mine      bool
}

type WaterQualityResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user"`
	VillageID *string `json:"village"`
	TDS       float64 `json:"tds"`
	PH        float64 `json:"ph"`
	Turbidity float64 `json:"turbidity"`
	Timestamp string  `json:"timestamp"`
}

type WaterQualityService interface {
	Create(ctx context.Context, caller auth.Identity, req WaterQualityRequest) (*WaterQualityResponse, error)
	Get(ctx context.Context, id string) (*WaterQualityResponse, error)
	List(ctx context.Context, caller auth.Identity, query WaterQualityQuery, params ListParams) ([]WaterQualityResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req WaterQualityRequest) (*WaterQualityResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type waterQualityService struct {
	readings   repository.WaterQualityRepository
	boundaries repository.BoundaryRepository
	now        func() time.Time
}

func NewWaterQualityService(readings repository.WaterQualityRepository, boundaries repository.BoundaryRepository) WaterQualityService {
	return &waterQualityService{readings: readings, boundaries: boundaries, now: time.Now}
}

func (s *waterQualityService) Create(ctx context.Context, caller auth.Identity, req WaterQualityRequest) (*WaterQualityResponse, error) {
	if req.TDS == nil || req.PH == nil || req.Turbidity == nil {
		return nil, apperror.Validation("tds, ph and turbidity are required")
	}
	reading := &model.WaterQualityReading{UserID: caller.UserID, Timestamp: s.now()}
	if err := s.apply(ctx, reading, req); err != nil {
		return nil, err
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}
	resp := toWaterQualityResponse(reading)
	return &resp, nil
}

func (s *waterQualityService) Get(ctx context.Context, id string) (*WaterQualityResponse, error) {
	readingID, err := parseID(id, "reading")
	if err != nil {
		return nil, err
	}
	reading, err := s.readings.FindByID(ctx, readingID)
	if err != nil {
		return nil, lookupErr(err, "Reading")
	}
	resp := toWaterQualityResponse(reading)
	return &resp, nil
}

func (s *waterQualityService) List(ctx context.Context, caller auth.Identity, query WaterQualityQuery, params ListParams) ([]WaterQualityResponse, int64, error) {
	villageID, err := parseOptionalID(query.VillageID, "village")
	if err != nil {
		return nil, 0, err
	}
	filter := repository.WaterQualityFilter{VillageID: villageID, Page: params.Page, Limit: params.Limit}
	if query.Mine {
		filter.UserID = &caller.UserID
	}

	readings, total, err := s.readings.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list readings: %w", err)
	}
	out := make([]WaterQualityResponse, 0, len(readings))
	for i := range readings {
		out = append(out, toWaterQualityResponse(&readings[i]))
	}
	return out, total, nil
}

func (s *waterQualityService) Update(ctx context.Context, caller auth.Identity, id string, req WaterQualityRequest) (*WaterQualityResponse, error) {
	reading, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, reading, req); err != nil {
		return nil, err
	}
	if err := s.readings.Update(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to update reading: %w", err)
	}
	resp := toWaterQualityResponse(reading)
	return &resp, nil
}

func (s *waterQualityService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	reading, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.readings.Delete(ctx, reading.ID); err != nil {
		return lookupErr(err, "Reading")
	}
	return nil
}

func (s *waterQualityService) owned(ctx context.Context, caller auth.Identity, id string) (*model.WaterQualityReading, error) {
	readingID, err := parseID(id, "reading")
	if err != nil {
		return nil, err
	}
	reading, err := s.readings.FindByID(ctx, readingID)
	if err != nil {
		return nil, lookupErr(err, "Reading")
	}
	if reading.UserID != caller.UserID && !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("only the recorder or an administrator can modify this reading")
	}
	return reading, nil
}

// apply validates and copies the supplied fields onto reading.
func (s *waterQualityService) apply(ctx context.Context, reading *model.WaterQualityReading, req WaterQualityRequest) error {
	if req.PH != nil {
		if *req.PH < 0 || *req.PH > 14 {
			return apperror.Validation("ph must be between 0 and 14")
		}
		reading.PH = *req.PH
	}
	if req.TDS != nil {
		if *req.TDS < 0 {
			return apperror.Validation("tds cannot be negative")
		}
		reading.TDS = *req.TDS
	}
	if req.Turbidity != nil {
		if *req.Turbidity < 0 {
			return apperror.Validation("turbidity cannot be negative")
		}
		reading.Turbidity = *req.Turbidity
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}
	if req.VillageID != nil {
		villageID, err := parseOptionalID(req.VillageID, "village")
		if err != nil {
			return err
		}
		if villageID != nil {
			if _, err := s.boundaries.FindVillage(ctx, *villageID); err != nil {
				if isNotFound(err) {
					return apperror.Validation("village %s does not exist", villageID)
				}
				return lookupErr(err, "Village")
			}
		}
		reading.VillageID = villageID
	}
	return nil
}

func toWaterQualityResponse(r *model.WaterQualityReading) WaterQualityResponse {
	return WaterQualityResponse{
		ID:        r.ID.String(),
		UserID:    r.UserID.String(),
		VillageID: uuidString(r.VillageID),
		TDS:       r.TDS,
		PH:        r.PH,
		Turbidity: r.Turbidity,
		Timestamp: formatTime(r.Timestamp),
	}
}
