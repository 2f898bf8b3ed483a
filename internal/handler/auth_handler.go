package handler

import (
	"net/http"

	"surveillance/internal/auth"
	"surveillance/internal/middleware"
	"surveillance/internal/service"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService         service.AuthService
	registrationService service.RegistrationService
	tokens              *auth.TokenManager
	log                 *zap.Logger
}

func NewAuthHandler(authService service.AuthService, registrationService service.RegistrationService, tokens *auth.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		registrationService: registrationService,
		tokens:              tokens,
		log:                 log,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/auth")
	{
		group.POST("/login", h.Login)
		group.POST("/refresh", h.Refresh)
		group.POST("/register", h.Register)

		group.GET("/profile", middleware.RequireAuth(h.tokens), h.GetProfile)
		group.PUT("/profile", middleware.RequireAuth(h.tokens), h.UpdateProfile)
	}

	registrations := group.Group("/registrations")
	registrations.Use(middleware.RequireAuth(h.tokens), middleware.RequireAdmin())
	{
		registrations.GET("", h.ListRegistrations)
		registrations.GET("/pending", h.ListPending)
		registrations.POST("/:id/approve", h.Approve)
		registrations.POST("/:id/reject", h.Reject)
	}
}

// Login exchanges credentials for an access/refresh token pair
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh rotates a refresh token
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req service.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// GetProfile returns the authenticated user
// @Summary      Current user profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Router       /api/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	profile, err := h.authService.Profile(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// UpdateProfile edits name, email and phone of the authenticated user
// @Summary      Update profile
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// Register submits a self-registration for admin review
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.SubmitResult}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.registrationService.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRegistrations returns registrations, optionally filtered by status
// @Summary      List registrations
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/auth/registrations [get]
func (h *AuthHandler) ListRegistrations(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.registrationService.ListAll(c.Request.Context(), caller(c), c.Query("status"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// ListPending returns registrations awaiting review
// @Summary      List pending registrations
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/auth/registrations/pending [get]
func (h *AuthHandler) ListPending(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.registrationService.ListPending(c.Request.Context(), caller(c), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// Approve creates the user account for a pending registration
// @Summary      Approve registration
// @Tags         registrations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true   "Registration ID"
// @Param        payload  body      service.ReviewRequest   false  "Admin notes"
// @Success      200      {object}  response.Response{data=service.ApproveResult}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/registrations/{id}/approve [post]
func (h *AuthHandler) Approve(c *gin.Context) {
	req, ok := bindReview(c)
	if !ok {
		return
	}

	result, err := h.registrationService.Approve(c.Request.Context(), caller(c), c.Param("id"), req.AdminNotes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reject closes a pending registration
// @Summary      Reject registration
// @Tags         registrations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true   "Registration ID"
// @Param        payload  body      service.ReviewRequest   false  "Admin notes"
// @Success      200      {object}  response.Response{data=service.RejectResult}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/registrations/{id}/reject [post]
func (h *AuthHandler) Reject(c *gin.Context) {
	req, ok := bindReview(c)
	if !ok {
		return
	}

	result, err := h.registrationService.Reject(c.Request.Context(), caller(c), c.Param("id"), req.AdminNotes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// bindReview accepts an empty body.
func bindReview(c *gin.Context) (service.ReviewRequest, bool) {
	var req service.ReviewRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	return req, bindJSON(c, &req)
}
