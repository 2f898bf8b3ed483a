package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access"`
	RefreshToken string       `json:"refresh"`
	ExpiresAt    string       `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// UserResponse never exposes the password hash.
type UserResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	PhoneNumber string   `json:"phone_number"`
	Roles       []string `json:"roles"`
	IsStaff     bool     `json:"is_staff"`
	IsSuperuser bool     `json:"is_superuser"`
	IsApproved  bool     `json:"is_approved"`
	ApprovedAt  *string  `json:"approved_at"`
	CreatedAt   string   `json:"created_at"`
}

// --- Interface ---

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Profile(ctx context.Context, caller auth.Identity) (*UserResponse, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, req UpdateProfileRequest) (*UserResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	tokens     *auth.TokenManager
	refreshTTL time.Duration
	txManager  repository.TransactionManager
	log        *zap.Logger
	now        func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	tokens *auth.TokenManager,
	refreshTTL time.Duration,
	txManager repository.TransactionManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		txManager:  txManager,
		log:        log,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	if err := checkSessionAllowed(user); err != nil {
		s.log.Warn("login denied", zap.String("username", user.Username))
		return nil, err
	}

	var resp *TokenResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		resp, err = s.issue(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	var resp *TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stored, err := s.tokenRepo.FindByToken(txCtx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("invalid refresh token")
			}
			return fmt.Errorf("failed to load refresh token: %w", err)
		}
		if !stored.ExpiresAt.After(s.now()) {
			return apperror.Unauthorized("refresh token expired")
		}
		if err := s.tokenRepo.Delete(txCtx, stored.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("invalid refresh token")
			}
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}

		user, err := s.userRepo.FindByID(txCtx, stored.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("invalid refresh token")
			}
			return fmt.Errorf("failed to load user: %w", err)
		}
		if err := checkSessionAllowed(user); err != nil {
			return err
		}

		resp, err = s.issue(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *authService) Profile(ctx context.Context, caller auth.Identity) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, caller auth.Identity, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, apperror.Validation("email cannot be empty")
		}
		taken, err := s.userRepo.EmailExists(ctx, email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, apperror.Validation("Email already exists")
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.Phone = *req.PhoneNumber
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, writeErr(err, "update profile", "Email already exists")
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// issue signs an access token and stores a fresh refresh token.
func (s *authService) issue(ctx context.Context, user *model.User) (*TokenResponse, error) {
	access, expiresAt, err := s.tokens.IssueAccess(auth.IdentityFromUser(user))
	if err != nil {
		return nil, err
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    formatTime(expiresAt),
		User:         toUserResponse(user),
	}, nil
}

// checkSessionAllowed denies inactive or unapproved accounts. Superusers are always approved.
func checkSessionAllowed(u *model.User) error {
	if !u.IsActive || (!u.IsApproved && !u.IsSuperuser) {
		return apperror.Permission("account pending approval")
	}
	return nil
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.Phone,
		Roles:       u.RoleNames(),
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		IsApproved:  u.IsApproved,
		ApprovedAt:  formatTimePtr(u.ApprovedAt),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}
