package repository

import (
	"context"
	"time"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.UserRegistration) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, status string, page, limit int) ([]model.UserRegistration, int64, error)
	// MarkReviewed moves a PENDING row to status and reports whether this call won the transition.
	MarkReviewed(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time, notes string) (bool, error)
}

type registrationRepository struct {
	crudRepository[model.UserRegistration]
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{crudRepository[model.UserRegistration]{db: db}}
}

func (r *registrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error) {
	var reg model.UserRegistration
	if err := GetDB(ctx, r.db).Preload("RequestedRole").Preload("Reviewer").First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindByIDForUpdate row-locks the registration for the rest of the transaction.
func (r *registrationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error) {
	var reg model.UserRegistration
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UserRegistration{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *registrationRepository) List(ctx context.Context, status string, page, limit int) ([]model.UserRegistration, int64, error) {
	query := GetDB(ctx, r.db).Preload("RequestedRole").Preload("Reviewer")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return paginate[model.UserRegistration](query, "created_at desc", page, limit)
}

func (r *registrationRepository) MarkReviewed(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time, notes string) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.UserRegistration{}).
		Where("id = ? AND status = ?", id, model.RegistrationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": reviewedAt,
			"admin_notes": notes,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
