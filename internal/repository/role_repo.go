package repository

import (
	"context"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	FirstOrCreate(ctx context.Context, role *model.Role) error
}

type roleRepository struct {
	crudRepository[model.Role]
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{crudRepository[model.Role]{db: db}}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Order("created_at asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// FirstOrCreate matches on name and fills the description only for new rows.
func (r *roleRepository) FirstOrCreate(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).
		Where(model.Role{Name: role.Name}).
		Attrs(model.Role{Description: role.Description}).
		FirstOrCreate(role).Error
}
