package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is append-only; there is no update or delete.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AuditLog, error)
	List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AuditLog, error) {
	var entry model.AuditLog
	if err := GetDB(ctx, r.db).Preload("User").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditRepository) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	query := GetDB(ctx, r.db).Preload("User")
	if action != "" {
		query = query.Where("action = ?", action)
	}
	return paginate[model.AuditLog](query, "created_at desc", page, limit)
}
