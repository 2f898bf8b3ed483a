package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicalRepository interface {
	Create(ctx context.Context, report *model.ClinicalReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ClinicalReport, error)
	ExistsForReport(ctx context.Context, ashaReportID uuid.UUID) (bool, error)
	Update(ctx context.Context, report *model.ClinicalReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.ClinicalReport, int64, error)
}

type clinicalRepository struct {
	crudRepository[model.ClinicalReport]
}

func NewClinicalRepository(db *gorm.DB) ClinicalRepository {
	return &clinicalRepository{crudRepository[model.ClinicalReport]{db: db}}
}

func (r *clinicalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ClinicalReport, error) {
	var report model.ClinicalReport
	if err := GetDB(ctx, r.db).Preload("Doctor").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *clinicalRepository) ExistsForReport(ctx context.Context, ashaReportID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ClinicalReport{}).Where("asha_report_id = ?", ashaReportID).Count(&count).Error
	return count > 0, err
}

func (r *clinicalRepository) List(ctx context.Context, page, limit int) ([]model.ClinicalReport, int64, error) {
	return paginate[model.ClinicalReport](GetDB(ctx, r.db).Preload("Doctor"), "created_at desc", page, limit)
}
