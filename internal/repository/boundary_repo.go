package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BoundaryRepository interface {
	CreateDistrict(ctx context.Context, d *model.DistrictBoundary) error
	UpdateDistrict(ctx context.Context, d *model.DistrictBoundary) error
	FindDistrict(ctx context.Context, id uuid.UUID) (*model.DistrictBoundary, error)
	// FirstDistrict returns the alphabetically first district.
	FirstDistrict(ctx context.Context) (*model.DistrictBoundary, error)
	ListDistricts(ctx context.Context, page, limit int) ([]model.DistrictBoundary, int64, error)

	CreateVillage(ctx context.Context, v *model.VillageBoundary) error
	UpdateVillage(ctx context.Context, v *model.VillageBoundary) error
	FindVillage(ctx context.Context, id uuid.UUID) (*model.VillageBoundary, error)
	ListVillages(ctx context.Context, districtID *uuid.UUID, page, limit int) ([]model.VillageBoundary, int64, error)
}

type boundaryRepository struct {
	db *gorm.DB
}

func NewBoundaryRepository(db *gorm.DB) BoundaryRepository {
	return &boundaryRepository{db: db}
}

func (r *boundaryRepository) CreateDistrict(ctx context.Context, d *model.DistrictBoundary) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(d).Error
}

func (r *boundaryRepository) UpdateDistrict(ctx context.Context, d *model.DistrictBoundary) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(d).Error
}

func (r *boundaryRepository) FindDistrict(ctx context.Context, id uuid.UUID) (*model.DistrictBoundary, error) {
	var d model.DistrictBoundary
	if err := GetDB(ctx, r.db).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *boundaryRepository) FirstDistrict(ctx context.Context) (*model.DistrictBoundary, error) {
	var d model.DistrictBoundary
	if err := GetDB(ctx, r.db).Order("district_name asc").First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *boundaryRepository) ListDistricts(ctx context.Context, page, limit int) ([]model.DistrictBoundary, int64, error) {
	return paginate[model.DistrictBoundary](GetDB(ctx, r.db), "district_name asc", page, limit)
}

func (r *boundaryRepository) CreateVillage(ctx context.Context, v *model.VillageBoundary) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(v).Error
}

func (r *boundaryRepository) UpdateVillage(ctx context.Context, v *model.VillageBoundary) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(v).Error
}

func (r *boundaryRepository) FindVillage(ctx context.Context, id uuid.UUID) (*model.VillageBoundary, error) {
	var v model.VillageBoundary
	if err := GetDB(ctx, r.db).Preload("District").First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *boundaryRepository) ListVillages(ctx context.Context, districtID *uuid.UUID, page, limit int) ([]model.VillageBoundary, int64, error) {
	query := GetDB(ctx, r.db).Preload("District")
	if districtID != nil {
		query = query.Where("district_id = ?", *districtID)
	}
	return paginate[model.VillageBoundary](query, "village_name asc", page, limit)
}
