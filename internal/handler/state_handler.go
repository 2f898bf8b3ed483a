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

type StateHandler struct {
	advisoryService  service.AdvisoryService
	dashboardService service.DashboardService
	tokens           *auth.TokenManager
	log              *zap.Logger
}

func NewStateHandler(advisoryService service.AdvisoryService, dashboardService service.DashboardService, tokens *auth.TokenManager, log *zap.Logger) *StateHandler {
	return &StateHandler{advisoryService: advisoryService, dashboardService: dashboardService, tokens: tokens, log: log}
}

func (h *StateHandler) RegisterRoutes(router *gin.RouterGroup) {
	advisories := router.Group("/api/state/advisories")
	advisories.Use(middleware.RequireAuth(h.tokens))
	{
		advisories.GET("", h.ListAdvisories)
		advisories.GET("/dashboard_stats", h.StateDashboard)
		advisories.GET("/:id", h.GetAdvisory)
		advisories.POST("", h.CreateAdvisory)
		advisories.PUT("/:id", h.UpdateAdvisory)
		advisories.DELETE("/:id", h.DeleteAdvisory)
	}
}

// ListAdvisories returns state advisories
// @Summary      List advisories
// @Tags         advisories
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/state/advisories [get]
func (h *StateHandler) ListAdvisories(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.advisoryService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetAdvisory returns one advisory
// @Summary      Get advisory
// @Tags         advisories
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Advisory ID"
// @Success      200  {object}  response.Response{data=service.AdvisoryResponse}
// @Router       /api/state/advisories/{id} [get]
func (h *StateHandler) GetAdvisory(c *gin.Context) {
	advisory, err := h.advisoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, advisory))
}

// CreateAdvisory issues a state advisory
// @Summary      Issue advisory
// @Tags         advisories
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdvisoryRequest  true  "Advisory"
// @Success      201      {object}  response.Response{data=service.AdvisoryResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/state/advisories [post]
func (h *StateHandler) CreateAdvisory(c *gin.Context) {
	var req service.AdvisoryRequest
	if !bindJSON(c, &req) {
		return
	}

	advisory, err := h.advisoryService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, advisory))
}

// UpdateAdvisory edits an advisory
// @Summary      Update advisory
// @Tags         advisories
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Advisory ID"
// @Param        payload  body      service.UpdateAdvisoryRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.AdvisoryResponse}
// @Router       /api/state/advisories/{id} [put]
func (h *StateHandler) UpdateAdvisory(c *gin.Context) {
	var req service.UpdateAdvisoryRequest
	if !bindJSON(c, &req) {
		return
	}

	advisory, err := h.advisoryService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, advisory))
}

// DeleteAdvisory removes an advisory
// @Summary      Delete advisory
// @Tags         advisories
// @Security     BearerAuth
// @Param        id   path  string  true  "Advisory ID"
// @Success      204
// @Router       /api/state/advisories/{id} [delete]
func (h *StateHandler) DeleteAdvisory(c *gin.Context) {
	if err := h.advisoryService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StateDashboard returns the state-wide aggregates
// @Summary      State dashboard
// @Tags         dashboards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.StateDashboard}
// @Router       /api/state/advisories/dashboard_stats [get]
func (h *StateHandler) StateDashboard(c *gin.Context) {
	stats, err := h.dashboardService.State(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
