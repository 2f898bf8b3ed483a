package repository

import (
	"context"
	"time"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertFilter struct {
	DistrictID *uuid.UUID
	Status     string
	Page       int
	Limit      int
}

type AlertRepository interface {
	Create(ctx context.Context, alert *model.DistrictAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DistrictAlert, error)
	// UpdateDetails writes title and description only.
	UpdateDetails(ctx context.Context, id uuid.UUID, title, description string) error
	// TransitionStatus moves the alert to `to` only if it is still in `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter AlertFilter) ([]model.DistrictAlert, int64, error)
}

type alertRepository struct {
	crudRepository[model.DistrictAlert]
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{crudRepository[model.DistrictAlert]{db: db}}
}

func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DistrictAlert, error) {
	var alert model.DistrictAlert
	if err := GetDB(ctx, r.db).Preload("District").First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) UpdateDetails(ctx context.Context, id uuid.UUID, title, description string) error {
	result := GetDB(ctx, r.db).Model(&model.DistrictAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *alertRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.DistrictAlert{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *alertRepository) List(ctx context.Context, f AlertFilter) ([]model.DistrictAlert, int64, error) {
	query := GetDB(ctx, r.db).Preload("District")
	if f.DistrictID != nil {
		query = query.Where("district_id = ?", *f.DistrictID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	return paginate[model.DistrictAlert](query, "created_at desc", f.Page, f.Limit)
}

type RiskScoreRepository interface {
	Create(ctx context.Context, score *model.RiskScore) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RiskScore, error)
	Update(ctx context.Context, score *model.RiskScore) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, districtID *uuid.UUID, page, limit int) ([]model.RiskScore, int64, error)
	// LatestForDistrict returns gorm.ErrRecordNotFound when the district has no score.
	LatestForDistrict(ctx context.Context, districtID uuid.UUID) (*model.RiskScore, error)
}

type riskScoreRepository struct {
	crudRepository[model.RiskScore]
}

func NewRiskScoreRepository(db *gorm.DB) RiskScoreRepository {
	return &riskScoreRepository{crudRepository[model.RiskScore]{db: db}}
}

func (r *riskScoreRepository) List(ctx context.Context, districtID *uuid.UUID, page, limit int) ([]model.RiskScore, int64, error) {
	query := GetDB(ctx, r.db).Preload("District")
	if districtID != nil {
		query = query.Where("district_id = ?", *districtID)
	}
	return paginate[model.RiskScore](query, "created_at desc", page, limit)
}

func (r *riskScoreRepository) LatestForDistrict(ctx context.Context, districtID uuid.UUID) (*model.RiskScore, error) {
	var score model.RiskScore
	if err := GetDB(ctx, r.db).
		Where("district_id = ?", districtID).
		Order("created_at desc").
		First(&score).Error; err != nil {
		return nil, err
	}
	return &score, nil
}
