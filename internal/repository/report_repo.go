package repository

import (
	"context"
	"time"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportFilter struct {
	Status     string
	DistrictID *uuid.UUID
	VillageID  *uuid.UUID
	UserID     *uuid.UUID
	Page       int
	Limit      int
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.AshaReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AshaReport, error)
	// UpdateDetails writes the reporter-editable columns only; status and verifier columns are
	// left to TransitionStatus.
	UpdateDetails(ctx context.Context, report *model.AshaReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ReportFilter) ([]model.AshaReport, int64, error)
	// ListAll returns every report matching the filter, ignoring pagination.
	ListAll(ctx context.Context, filter ReportFilter) ([]model.AshaReport, error)
	// TransitionStatus applies from -> to only if the row is still in from. verifiedBy and
	// verifiedAt are written together when non-nil.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, verifiedBy *uuid.UUID, verifiedAt *time.Time) (bool, error)
}

type reportRepository struct {
	crudRepository[model.AshaReport]
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{crudRepository[model.AshaReport]{db: db}}
}

func (r *reportRepository) withRelations(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).
		Preload("User").
		Preload("District").
		Preload("Village").
		Preload("Verifier")
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AshaReport, error) {
	var report model.AshaReport
	if err := r.withRelations(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) filtered(ctx context.Context, f ReportFilter) *gorm.DB {
	query := r.withRelations(ctx)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.DistrictID != nil {
		query = query.Where("district_id = ?", *f.DistrictID)
	}
	if f.VillageID != nil {
		query = query.Where("village_id = ?", *f.VillageID)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	return query
}

func (r *reportRepository) List(ctx context.Context, f ReportFilter) ([]model.AshaReport, int64, error) {
	return paginate[model.AshaReport](r.filtered(ctx, f), "created_at desc", f.Page, f.Limit)
}

func (r *reportRepository) ListAll(ctx context.Context, f ReportFilter) ([]model.AshaReport, error) {
	var reports []model.AshaReport
	if err := r.filtered(ctx, f).Order("created_at desc").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) UpdateDetails(ctx context.Context, report *model.AshaReport) error {
	result := GetDB(ctx, r.db).Model(&model.AshaReport{}).
		Where("id = ?", report.ID).
		Updates(map[string]interface{}{
			"symptoms_json": report.SymptomsJSON,
			"district_id":   report.DistrictID,
			"village_id":    report.VillageID,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reportRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, verifiedBy *uuid.UUID, verifiedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if verifiedBy != nil && verifiedAt != nil {
		updates["verified_by"] = *verifiedBy
		updates["verified_at"] = *verifiedAt
	}

	result := GetDB(ctx, r.db).Model(&model.AshaReport{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
