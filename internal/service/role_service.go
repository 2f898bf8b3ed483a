package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"surveillance/internal/config"
	"surveillance/internal/model"
	"surveillance/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	// Bootstrap seeds the default roles and the bootstrap superuser. Safe to run on every start.
	Bootstrap(ctx context.Context, cfg config.BootstrapConfig) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	userRepo  repository.UserRepository
	txManager repository.TransactionManager
	log       *zap.Logger
}

func NewRoleService(roleRepo repository.RoleRepository, userRepo repository.UserRepository, txManager repository.TransactionManager, log *zap.Logger) RoleService {
	return &roleService{roleRepo: roleRepo, userRepo: userRepo, txManager: txManager, log: log}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, RoleResponse{ID: r.ID.String(), Name: r.Name, Description: r.Description})
	}
	return res, nil
}

func (s *roleService) Bootstrap(ctx context.Context, cfg config.BootstrapConfig) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var superAdmin *model.Role
		for _, def := range model.DefaultRoles {
			role := def
			if err := s.roleRepo.FirstOrCreate(txCtx, &role); err != nil {
				return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
			}
			if role.Name == model.RoleSuperAdmin {
				superAdmin = &role
			}
		}

		if cfg.AdminPassword == "" {
			s.log.Info("bootstrap admin password not set, skipping superuser creation")
			return nil
		}

		existing, err := s.userRepo.FindByUsername(txCtx, cfg.AdminUsername)
		if err == nil {
			s.log.Debug("bootstrap superuser already present", zap.String("username", existing.Username))
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up bootstrap superuser: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		now := time.Now()
		admin := &model.User{
			Username:    cfg.AdminUsername,
			Email:       cfg.AdminEmail,
			Password:    string(hash),
			IsActive:    true,
			IsStaff:     true,
			IsSuperuser: true,
			IsApproved:  true,
			ApprovedAt:  &now,
		}
		if err := s.userRepo.Create(txCtx, admin); err != nil {
			return fmt.Errorf("failed to create bootstrap superuser: %w", err)
		}
		if err := s.userRepo.AttachRole(txCtx, admin.ID, superAdmin.ID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		s.log.Info("bootstrap superuser created", zap.String("username", admin.Username))
		return nil
	})
}
