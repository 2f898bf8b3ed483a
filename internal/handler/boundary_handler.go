package handler

import (
	"net/http"
	"strconv"

	"surveillance/internal/auth"
	"surveillance/internal/middleware"
	"surveillance/internal/service"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DistrictHandler struct {
	boundaryService  service.BoundaryService
	directiveService service.DirectiveService
	dashboardService service.DashboardService
	tokens           *auth.TokenManager
	log              *zap.Logger
}

func NewDistrictHandler(
	boundaryService service.BoundaryService,
	directiveService service.DirectiveService,
	dashboardService service.DashboardService,
	tokens *auth.TokenManager,
	log *zap.Logger,
) *DistrictHandler {
	return &DistrictHandler{
		boundaryService:  boundaryService,
		directiveService: directiveService,
		dashboardService: dashboardService,
		tokens:           tokens,
		log:              log,
	}
}

func (h *DistrictHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(h.tokens)

	boundaries := router.Group("/api/district/boundaries")
	{
		boundaries.GET("", h.ListDistricts)
		boundaries.GET("/:id", h.GetDistrict)
		boundaries.GET("/:id/dashboard_stats", requireAuth, h.DistrictDashboard)
		boundaries.POST("", requireAuth, h.CreateDistrict)
		boundaries.PUT("/:id", requireAuth, h.UpdateDistrict)
	}

	villages := router.Group("/api/district/villages")
	{
		villages.GET("", h.ListVillages)
		villages.GET("/:id", h.GetVillage)
		villages.POST("", requireAuth, h.CreateVillage)
		villages.PUT("/:id", requireAuth, h.UpdateVillage)
	}

	directives := router.Group("/api/district/directives")
	directives.Use(requireAuth)
	{
		directives.GET("", h.ListDirectives)
		directives.GET("/:id", h.GetDirective)
		directives.POST("", h.CreateDirective)
		directives.PUT("/:id", h.UpdateDirective)
		directives.DELETE("/:id", h.DeleteDirective)
	}
}

// ListDistricts returns district boundaries
// @Summary      List districts
// @Tags         boundaries
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/district/boundaries [get]
func (h *DistrictHandler) ListDistricts(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.boundaryService.ListDistricts(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetDistrict returns one district
// @Summary      Get district
// @Tags         boundaries
// @Produce      json
// @Param        id   path      string  true  "District ID"
// @Success      200  {object}  response.Response{data=service.DistrictResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/district/boundaries/{id} [get]
func (h *DistrictHandler) GetDistrict(c *gin.Context) {
	district, err := h.boundaryService.GetDistrict(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, district))
}

// CreateDistrict adds a district
// @Summary      Create district
// @Tags         boundaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DistrictRequest  true  "District"
// @Success      201      {object}  response.Response{data=service.DistrictResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/district/boundaries [post]
func (h *DistrictHandler) CreateDistrict(c *gin.Context) {
	var req service.DistrictRequest
	if !bindJSON(c, &req) {
		return
	}

	district, err := h.boundaryService.CreateDistrict(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, district))
}

// UpdateDistrict renames a district
// @Summary      Update district
// @Tags         boundaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "District ID"
// @Param        payload  body      service.DistrictRequest  true  "District"
// @Success      200      {object}  response.Response{data=service.DistrictResponse}
// @Router       /api/district/boundaries/{id} [put]
func (h *DistrictHandler) UpdateDistrict(c *gin.Context) {
	var req service.DistrictRequest
	if !bindJSON(c, &req) {
		return
	}

	district, err := h.boundaryService.UpdateDistrict(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, district))
}

// DistrictDashboard returns the district aggregates
// @Summary      District dashboard
// @Tags         dashboards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "District ID"
// @Success      200  {object}  response.Response{data=model.DistrictDashboard}
// @Failure      404  {object}  response.Response
// @Router       /api/district/boundaries/{id}/dashboard_stats [get]
func (h *DistrictHandler) DistrictDashboard(c *gin.Context) {
	stats, err := h.dashboardService.District(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// ListVillages returns villages, optionally of one district
// @Summary      List villages
// @Tags         boundaries
// @Produce      json
// @Param        district_id  query     string  false  "District ID"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/district/villages [get]
func (h *DistrictHandler) ListVillages(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.boundaryService.ListVillages(c.Request.Context(), optionalQuery(c, "district_id"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetVillage returns one village
// @Summary      Get village
// @Tags         boundaries
// @Produce      json
// @Param        id   path      string  true  "Village ID"
// @Success      200  {object}  response.Response{data=service.VillageResponse}
// @Router       /api/district/villages/{id} [get]
func (h *DistrictHandler) GetVillage(c *gin.Context) {
	village, err := h.boundaryService.GetVillage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, village))
}

// CreateVillage adds a village to a district
// @Summary      Create village
// @Tags         boundaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VillageRequest  true  "Village"
// @Success      201      {object}  response.Response{data=service.VillageResponse}
// @Router       /api/district/villages [post]
func (h *DistrictHandler) CreateVillage(c *gin.Context) {
	var req service.VillageRequest
	if !bindJSON(c, &req) {
		return
	}

	village, err := h.boundaryService.CreateVillage(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, village))
}

// UpdateVillage edits a village
// @Summary      Update village
// @Tags         boundaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Village ID"
// @Param        payload  body      service.VillageRequest  true  "Village"
// @Success      200      {object}  response.Response{data=service.VillageResponse}
// @Router       /api/district/villages/{id} [put]
func (h *DistrictHandler) UpdateVillage(c *gin.Context) {
	var req service.VillageRequest
	if !bindJSON(c, &req) {
		return
	}

	village, err := h.boundaryService.UpdateVillage(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, village))
}

// ListDirectives returns directives
// @Summary      List directives
// @Tags         directives
// @Security     BearerAuth
// @Produce      json
// @Param        district_id  query     string  false  "Target district ID"
// @Param        active    query     bool    false  "Filter on is_active"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/district/directives [get]
func (h *DistrictHandler) ListDirectives(c *gin.Context) {
	params := listParams(c)
	query := service.DirectiveQuery{DistrictID: optionalQuery(c, "district_id")}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			query.Active = &active
		}
	}

	items, total, err := h.directiveService.List(c.Request.Context(), query, params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetDirective returns one directive
// @Summary      Get directive
// @Tags         directives
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Directive ID"
// @Success      200  {object}  response.Response{data=service.DirectiveResponse}
// @Router       /api/district/directives/{id} [get]
func (h *DistrictHandler) GetDirective(c *gin.Context) {
	directive, err := h.directiveService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, directive))
}

// CreateDirective issues a directive
// @Summary      Issue directive
// @Tags         directives
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DirectiveRequest  true  "Directive"
// @Success      201      {object}  response.Response{data=service.DirectiveResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/district/directives [post]
func (h *DistrictHandler) CreateDirective(c *gin.Context) {
	var req service.DirectiveRequest
	if !bindJSON(c, &req) {
		return
	}

	directive, err := h.directiveService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, directive))
}

// UpdateDirective edits a directive
// @Summary      Update directive
// @Tags         directives
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Directive ID"
// @Param        payload  body      service.UpdateDirectiveRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.DirectiveResponse}
// @Router       /api/district/directives/{id} [put]
func (h *DistrictHandler) UpdateDirective(c *gin.Context) {
	var req service.UpdateDirectiveRequest
	if !bindJSON(c, &req) {
		return
	}

	directive, err := h.directiveService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, directive))
}

// DeleteDirective removes a directive
// @Summary      Delete directive
// @Tags         directives
// @Security     BearerAuth
// @Param        id   path  string  true  "Directive ID"
// @Success      204
// @Router       /api/district/directives/{id} [delete]
func (h *DistrictHandler) DeleteDirective(c *gin.Context) {
	if err := h.directiveService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
