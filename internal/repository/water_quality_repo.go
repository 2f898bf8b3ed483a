package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaterQualityFilter struct {
	VillageID *uuid.UUID
	UserID    *uuid.UUID
	Page      int
	Limit     int
}

type WaterQualityRepository interface {
	Create(ctx context.Context, reading *model.WaterQualityReading) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WaterQualityReading, error)
	Update(ctx context.Context, reading *model.WaterQualityReading) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter WaterQualityFilter) ([]model.WaterQualityReading, int64, error)
}

type waterQualityRepository struct {
	crudRepository[model.WaterQualityReading]
}

func NewWaterQualityRepository(db *gorm.DB) WaterQualityRepository {
	return &waterQualityRepository{crudRepository[model.WaterQualityReading]{db: db}}
}

func (r *waterQualityRepository) List(ctx context.Context, f WaterQualityFilter) ([]model.WaterQualityReading, int64, error) {
	query := GetDB(ctx, r.db)
	if f.VillageID != nil {
		query = query.Where("village_id = ?", *f.VillageID)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	return paginate[model.WaterQualityReading](query, "timestamp desc", f.Page, f.Limit)
}
