package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"required,email"`
	FirstName       string `json:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	PhoneNumber     string `json:"phone_number" binding:"max=20"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	RequestedRoleID string `json:"requested_role_id"`
	RequestedRole   string `json:"requested_role"`
	Reason          string `json:"reason"`
}

type ReviewRequest struct {
	AdminNotes string `json:"admin_notes"`
}

type SubmitResult struct {
	Message        string `json:"message"`
	RegistrationID string `json:"registration_id"`
	Username       string `json:"username"`
	Status         string `json:"status"`
}

type ApproveResult struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type RejectResult struct {
	Message        string `json:"message"`
	RegistrationID string `json:"registration_id"`
}

type RoleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RegistrationResponse struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	PhoneNumber   string      `json:"phone_number"`
	RequestedRole RoleSummary `json:"requested_role"`
	Reason        string      `json:"reason"`
	Status        string      `json:"status"`
	AdminNotes    string      `json:"admin_notes"`
	ReviewedBy    *string     `json:"reviewed_by"`
	ReviewerName  string      `json:"reviewed_by_name"`
	ReviewedAt    *string     `json:"reviewed_at"`
	CreatedAt     string      `json:"created_at"`
}

const defaultRejectNote = "Rejected by admin"

// --- Interface ---

type RegistrationService interface {
	Submit(ctx context.Context, req RegisterRequest) (SubmitResult, error)
	ListPending(ctx context.Context, caller auth.Identity, params ListParams) ([]RegistrationResponse, int64, error)
	ListAll(ctx context.Context, caller auth.Identity, status string, params ListParams) ([]RegistrationResponse, int64, error)
	Approve(ctx context.Context, caller auth.Identity, id string, notes string) (ApproveResult, error)
	Reject(ctx context.Context, caller auth.Identity, id string, notes string) (RejectResult, error)
}

type registrationService struct {
	regRepo   repository.RegistrationRepository
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	audit     AuditRecorder
	txManager repository.TransactionManager
	log       *zap.Logger
	now       func() time.Time
}

func NewRegistrationService(
	regRepo repository.RegistrationRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	audit AuditRecorder,
	txManager repository.TransactionManager,
	log *zap.Logger,
) RegistrationService {
	return &registrationService{
		regRepo:   regRepo,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		audit:     audit,
		txManager: txManager,
		log:       log,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *registrationService) Submit(ctx context.Context, req RegisterRequest) (SubmitResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return SubmitResult{}, apperror.Validation("username, email and password are required")
	}
	if req.Password != req.PasswordConfirm {
		return SubmitResult{}, apperror.Validation("Passwords don't match")
	}

	role, err := s.resolveRole(ctx, req)
	if err != nil {
		return SubmitResult{}, err
	}

	if taken, err := s.userRepo.UsernameExists(ctx, req.Username); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return SubmitResult{}, apperror.Validation("Username already exists")
	}
	if taken, err := s.userRepo.EmailExists(ctx, req.Email, uuid.Nil); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return SubmitResult{}, apperror.Validation("Email already exists")
	}
	if pending, err := s.regRepo.UsernameExists(ctx, req.Username); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to check registrations: %w", err)
	} else if pending {
		return SubmitResult{}, apperror.Validation("A registration for this username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	reg := &model.UserRegistration{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.PhoneNumber,
		PasswordHash:    string(hash),
		RequestedRoleID: role.ID,
		Reason:          req.Reason,
		Status:          model.RegistrationPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.regRepo.Create(txCtx, reg); err != nil {
			return writeErr(err, "create registration", "A registration for this username already exists")
		}
		return s.audit.Record(txCtx, AuditEntry{
			Action:   model.ActionRegistrationSubmitted,
			Target:   fmt.Sprintf("Registration %s (%s)", reg.Username, role.Name),
			EntityID: reg.ID.String(),
			Details:  map[string]interface{}{"requested_role": role.Name},
		})
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.log.Info("registration submitted", zap.String("username", reg.Username), zap.String("role", role.Name))
	return SubmitResult{
		Message:        "Registration submitted successfully. Please wait for admin approval.",
		RegistrationID: reg.ID.String(),
		Username:       reg.Username,
		Status:         reg.Status,
	}, nil
}

func (s *registrationService) resolveRole(ctx context.Context, req RegisterRequest) (*model.Role, error) {
	switch {
	case strings.TrimSpace(req.RequestedRoleID) != "":
		roleID, err := parseID(req.RequestedRoleID, "role")
		if err != nil {
			return nil, err
		}
		role, err := s.roleRepo.FindByID(ctx, roleID)
		if isNotFound(err) {
			return nil, apperror.Validation("Requested role does not exist")
		}
		if err != nil {
			return nil, lookupErr(err, "Role")
		}
		return role, nil
	case strings.TrimSpace(req.RequestedRole) != "":
		role, err := s.roleRepo.FindByName(ctx, strings.TrimSpace(req.RequestedRole))
		if isNotFound(err) {
			return nil, apperror.Validation("Requested role does not exist")
		}
		if err != nil {
			return nil, lookupErr(err, "Role")
		}
		return role, nil
	default:
		return nil, apperror.Validation("requested_role_id or requested_role is required")
	}
}

func (s *registrationService) ListPending(ctx context.Context, caller auth.Identity, params ListParams) ([]RegistrationResponse, int64, error) {
	return s.ListAll(ctx, caller, model.RegistrationPending, params)
}

func (s *registrationService) ListAll(ctx context.Context, caller auth.Identity, status string, params ListParams) ([]RegistrationResponse, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperror.Permission("Admin permission required")
	}
	regs, total, err := s.regRepo.List(ctx, strings.ToUpper(status), params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	out := make([]RegistrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, toRegistrationResponse(&regs[i]))
	}
	return out, total, nil
}

func (s *registrationService) Approve(ctx context.Context, caller auth.Identity, id string, notes string) (ApproveResult, error) {
	if !caller.IsAdmin() {
		return ApproveResult{}, apperror.Permission("Admin permission required")
	}
	regID, err := parseID(id, "registration")
	if err != nil {
		return ApproveResult{}, err
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		reg, err := s.lockPending(txCtx, regID)
		if err != nil {
			return err
		}

		now := s.now()
		won, err := s.regRepo.MarkReviewed(txCtx, reg.ID, model.RegistrationApproved, caller.UserID, now, notes)
		if err != nil {
			return fmt.Errorf("failed to update registration: %w", err)
		}
		if !won {
			return apperror.State("Registration is already reviewed")
		}

		if taken, err := s.userRepo.UsernameExists(txCtx, reg.Username); err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		} else if taken {
			return apperror.Conflict("A user named %s already exists", reg.Username)
		}

		reviewer := caller.UserID
		user = &model.User{
			Username:   reg.Username,
			Email:      reg.Email,
			FirstName:  reg.FirstName,
			LastName:   reg.LastName,
			Phone:      reg.Phone,
			Password:   reg.PasswordHash,
			IsActive:   true,
			IsApproved: true,
			ApprovedBy: &reviewer,
			ApprovedAt: &now,
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return writeErr(err, "create user", "A user with this username or email already exists")
		}
		if err := s.userRepo.AttachRole(txCtx, user.ID, reg.RequestedRoleID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}

		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &reviewer,
			Action:   model.ActionRegistrationApproved,
			Target:   fmt.Sprintf("Registration %s", reg.Username),
			EntityID: reg.ID.String(),
			Details:  map[string]interface{}{"user_id": user.ID.String(), "admin_notes": notes},
		})
	})
	if err != nil {
		return ApproveResult{}, err
	}

	s.log.Info("registration approved", zap.String("username", user.Username), zap.String("reviewer", caller.Username))
	return ApproveResult{
		Message:  fmt.Sprintf("User %s approved successfully", user.Username),
		UserID:   user.ID.String(),
		Username: user.Username,
	}, nil
}

func (s *registrationService) Reject(ctx context.Context, caller auth.Identity, id string, notes string) (RejectResult, error) {
	if !caller.IsAdmin() {
		return RejectResult{}, apperror.Permission("Admin permission required")
	}
	regID, err := parseID(id, "registration")
	if err != nil {
		return RejectResult{}, err
	}
	if strings.TrimSpace(notes) == "" {
		notes = defaultRejectNote
	}

	var username string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		reg, err := s.lockPending(txCtx, regID)
		if err != nil {
			return err
		}
		username = reg.Username

		won, err := s.regRepo.MarkReviewed(txCtx, reg.ID, model.RegistrationRejected, caller.UserID, s.now(), notes)
		if err != nil {
			return fmt.Errorf("failed to update registration: %w", err)
		}
		if !won {
			return apperror.State("Registration is already reviewed")
		}

		reviewer := caller.UserID
		return s.audit.Record(txCtx, AuditEntry{
			UserID:   &reviewer,
			Action:   model.ActionRegistrationRejected,
			Target:   fmt.Sprintf("Registration %s", reg.Username),
			EntityID: reg.ID.String(),
			Details:  map[string]interface{}{"admin_notes": notes},
		})
	})
	if err != nil {
		return RejectResult{}, err
	}

	s.log.Info("registration rejected", zap.String("username", username), zap.String("reviewer", caller.Username))
	return RejectResult{
		Message:        fmt.Sprintf("Registration for %s rejected", username),
		RegistrationID: regID.String(),
	}, nil
}

// lockPending loads the registration FOR UPDATE and enforces the PENDING guard.
func (s *registrationService) lockPending(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error) {
	reg, err := s.regRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Registration")
	}
	if reg.Status != model.RegistrationPending {
		return nil, apperror.State("Registration is already %s", strings.ToLower(reg.Status))
	}
	return reg, nil
}

// --- Helpers ---

func toRegistrationResponse(r *model.UserRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:            r.ID.String(),
		Username:      r.Username,
		Email:         r.Email,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		PhoneNumber:   r.Phone,
		RequestedRole: RoleSummary{ID: r.RequestedRoleID.String(), Name: r.RequestedRole.Name},
		Reason:        r.Reason,
		Status:        r.Status,
		AdminNotes:    r.AdminNotes,
		ReviewedBy:    uuidString(r.ReviewedBy),
		ReviewedAt:    formatTimePtr(r.ReviewedAt),
		CreatedAt:     formatTime(r.CreatedAt),
	}
	if r.Reviewer != nil {
		resp.ReviewerName = r.Reviewer.Username
	}
	return resp
}
