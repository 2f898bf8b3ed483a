package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DirectiveFilter struct {
	DistrictID *uuid.UUID
	Active     *bool
	Page       int
	Limit      int
}

type DirectiveRepository interface {
	Create(ctx context.Context, d *model.Directive) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Directive, error)
	Update(ctx context.Context, d *model.Directive) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter DirectiveFilter) ([]model.Directive, int64, error)
}

type directiveRepository struct {
	crudRepository[model.Directive]
}

func NewDirectiveRepository(db *gorm.DB) DirectiveRepository {
	return &directiveRepository{crudRepository[model.Directive]{db: db}}
}

func (r *directiveRepository) withRelations(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).Preload("IssuedBy").Preload("TargetDistrict").Preload("TargetVillage")
}

func (r *directiveRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Directive, error) {
	var d model.Directive
	if err := r.withRelations(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *directiveRepository) List(ctx context.Context, f DirectiveFilter) ([]model.Directive, int64, error) {
	query := r.withRelations(ctx)
	if f.DistrictID != nil {
		query = query.Where("target_district_id = ?", *f.DistrictID)
	}
	if f.Active != nil {
		query = query.Where("is_active = ?", *f.Active)
	}
	return paginate[model.Directive](query, "created_at desc", f.Page, f.Limit)
}

type AdvisoryRepository interface {
	Create(ctx context.Context, a *model.StateAdvisory) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StateAdvisory, error)
	Update(ctx context.Context, a *model.StateAdvisory) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.StateAdvisory, int64, error)
}

type advisoryRepository struct {
	crudRepository[model.StateAdvisory]
}

func NewAdvisoryRepository(db *gorm.DB) AdvisoryRepository {
	return &advisoryRepository{crudRepository[model.StateAdvisory]{db: db}}
}

func (r *advisoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StateAdvisory, error) {
	var a model.StateAdvisory
	if err := GetDB(ctx, r.db).Preload("StateAdmin").First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *advisoryRepository) List(ctx context.Context, page, limit int) ([]model.StateAdvisory, int64, error) {
	return paginate[model.StateAdvisory](GetDB(ctx, r.db).Preload("StateAdmin"), "created_at desc", page, limit)
}
