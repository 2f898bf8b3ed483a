package service

import (
	"context"
	"fmt"
	"strings"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/internal/tasks"
	"surveillance/pkg/apperror"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RiskScoreRequest struct {
	DistrictID     string          `json:"district" binding:"required"`
	ScoreValue     *decimal.Decimal `json:"score_value"`
	Classification string           `json:"classification"`
}

type UpdateRiskScoreRequest struct {
	ScoreValue     *decimal.Decimal `json:"score_value"`
	Classification *string          `json:"classification"`
}

type RiskScoreResponse struct {
	ID             string          `json:"id"`
	DistrictID     string          `json:"district"`
	DistrictName   string          `json:"district_name"`
	ScoreValue     decimal.Decimal `json:"score_value"`
	Classification string          `json:"classification"`
	CreatedAt      string          `json:"created_at"`
}

type PredictionResponse struct {
	Message    string `json:"message"`
	TaskID     string `json:"task_id"`
	DistrictID string `json:"district_id"`
}

var maxRiskScore = decimal.NewFromInt(100)

type RiskScoreService interface {
	Create(ctx context.Context, caller auth.Identity, req RiskScoreRequest) (*RiskScoreResponse, error)
	Get(ctx context.Context, id string) (*RiskScoreResponse, error)
	List(ctx context.Context, districtID *string, params ListParams) ([]RiskScoreResponse, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req UpdateRiskScoreRequest) (*RiskScoreResponse, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
	// Predict queues a run_risk_prediction job; the result is available from the queue only.
	Predict(ctx context.Context, caller auth.Identity, districtID string) (*PredictionResponse, error)
}

type riskScoreService struct {
	scores     repository.RiskScoreRepository
	boundaries repository.BoundaryRepository
	queue      tasks.Queue
	log        *zap.Logger
}

func NewRiskScoreService(scores repository.RiskScoreRepository, boundaries repository.BoundaryRepository, queue tasks.Queue, log *zap.Logger) RiskScoreService {
	return &riskScoreService{scores: scores, boundaries: boundaries, queue: queue, log: log}
}

func (s *riskScoreService) Create(ctx context.Context, caller auth.Identity, req RiskScoreRequest) (*RiskScoreResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("risk scores require a district or state administrator role")
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

	if req.ScoreValue == nil {
		return nil, apperror.Validation("score_value is required")
	}
	classification, err := classify(*req.ScoreValue, req.Classification)
	if err != nil {
		return nil, err
	}
	score := &model.RiskScore{
		DistrictID:     district.ID,
		District:       *district,
		ScoreValue:     *req.ScoreValue,
		Classification: classification,
	}
	if err := s.scores.Create(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to create risk score: %w", err)
	}
	resp := toRiskScoreResponse(score)
	return &resp, nil
}

func (s *riskScoreService) Get(ctx context.Context, id string) (*RiskScoreResponse, error) {
	scoreID, err := parseID(id, "risk score")
	if err != nil {
		return nil, err
	}
	score, err := s.scores.FindByID(ctx, scoreID)
	if err != nil {
		return nil, lookupErr(err, "Risk score")
	}
	resp := toRiskScoreResponse(score)
	return &resp, nil
}

func (s *riskScoreService) List(ctx context.Context, districtID *string, params ListParams) ([]RiskScoreResponse, int64, error) {
	filter, err := parseOptionalID(districtID, "district")
	if err != nil {
		return nil, 0, err
	}
	scores, total, err := s.scores.List(ctx, filter, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list risk scores: %w", err)
	}
	out := make([]RiskScoreResponse, 0, len(scores))
	for i := range scores {
		out = append(out, toRiskScoreResponse(&scores[i]))
	}
	return out, total, nil
}

func (s *riskScoreService) Update(ctx context.Context, caller auth.Identity, id string, req UpdateRiskScoreRequest) (*RiskScoreResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("risk scores require a district or state administrator role")
	}
	scoreID, err := parseID(id, "risk score")
	if err != nil {
		return nil, err
	}
	score, err := s.scores.FindByID(ctx, scoreID)
	if err != nil {
		return nil, lookupErr(err, "Risk score")
	}

	value := score.ScoreValue
	if req.ScoreValue != nil {
		value = *req.ScoreValue
	}
	requested := ""
	if req.Classification != nil {
		requested = *req.Classification
	}
	classification, err := classify(value, requested)
	if err != nil {
		return nil, err
	}
	score.ScoreValue, score.Classification = value, classification

	if err := s.scores.Update(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to update risk score: %w", err)
	}
	resp := toRiskScoreResponse(score)
	return &resp, nil
}

func (s *riskScoreService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.CanAdministerDistrict() {
		return apperror.Permission("risk scores require a district or state administrator role")
	}
	scoreID, err := parseID(id, "risk score")
	if err != nil {
		return err
	}
	if err := s.scores.Delete(ctx, scoreID); err != nil {
		return lookupErr(err, "Risk score")
	}
	return nil
}

func (s *riskScoreService) Predict(ctx context.Context, caller auth.Identity, districtID string) (*PredictionResponse, error) {
	if !caller.CanAdministerDistrict() {
		return nil, apperror.Permission("risk prediction requires a district or state administrator role")
	}
	id, err := parseID(districtID, "district")
	if err != nil {
		return nil, err
	}
	if _, err := s.boundaries.FindDistrict(ctx, id); err != nil {
		return nil, lookupErr(err, "District")
	}

	handle, err := s.queue.Submit(ctx, tasks.RiskPredictionJob(id))
	if err != nil {
		return nil, fmt.Errorf("failed to queue risk prediction: %w", err)
	}
	s.log.Info("risk prediction queued", zap.String("district_id", id.String()), zap.String("task_id", string(handle)))
	return &PredictionResponse{
		Message:    "Risk prediction queued",
		TaskID:     string(handle),
		DistrictID: id.String(),
	}, nil
}

// classify validates the 0-100 range and derives the classification when none is given.
func classify(value decimal.Decimal, requested string) (string, error) {
	if value.IsNegative() || value.GreaterThan(maxRiskScore) {
		return "", apperror.Validation("score_value must be between 0 and 100")
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return model.ClassifyRisk(value), nil
	}
	for _, known := range []string{model.RiskLow, model.RiskModerate, model.RiskHigh} {
		if strings.EqualFold(known, requested) {
			return known, nil
		}
	}
	return "", apperror.Validation("invalid classification %q: must be Low, Moderate or High", requested)
}

func toRiskScoreResponse(r *model.RiskScore) RiskScoreResponse {
	return RiskScoreResponse{
		ID:             r.ID.String(),
		DistrictID:     r.DistrictID.String(),
		DistrictName:   r.District.DistrictName,
		ScoreValue:     r.ScoreValue,
		Classification: r.Classification,
		CreatedAt:      formatTime(r.CreatedAt),
	}
}
