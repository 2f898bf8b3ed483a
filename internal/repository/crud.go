package repository

import (
	"context"

	"surveillance/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// crudRepository carries the single-row operations shared by every entity repository.
type crudRepository[T any] struct {
	db *gorm.DB
}

func (r *crudRepository[T]) Create(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(entity).Error
}

func (r *crudRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := GetDB(ctx, r.db).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *crudRepository[T]) Update(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(entity).Error
}

// Delete returns gorm.ErrRecordNotFound when no row matched.
func (r *crudRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// paginate counts the filtered query, then fetches one page of it.
func paginate[T any](query *gorm.DB, order string, page, limit int) ([]T, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := pagination.Normalize(page, limit)
	var items []T
	if err := query.Order(order).Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
