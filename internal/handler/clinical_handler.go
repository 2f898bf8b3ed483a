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

type ClinicalHandler struct {
	clinicalService service.ClinicalService
	tokens          *auth.TokenManager
	log             *zap.Logger
}

func NewClinicalHandler(clinicalService service.ClinicalService, tokens *auth.TokenManager, log *zap.Logger) *ClinicalHandler {
	return &ClinicalHandler{clinicalService: clinicalService, tokens: tokens, log: log}
}

func (h *ClinicalHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/clinical/reports")
	group.Use(middleware.RequireAuth(h.tokens))
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}
}

// List returns clinical reports
// @Summary      List clinical reports
// @Tags         clinical
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/clinical/reports [get]
func (h *ClinicalHandler) List(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.clinicalService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// Get returns one clinical report
// @Summary      Get clinical report
// @Tags         clinical
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Clinical report ID"
// @Success      200  {object}  response.Response{data=service.ClinicalResponse}
// @Router       /api/clinical/reports/{id} [get]
func (h *ClinicalHandler) Get(c *gin.Context) {
	report, err := h.clinicalService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Create annotates an ASHA report with a diagnosis
// @Summary      Create clinical report
// @Tags         clinical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClinicalRequest  true  "Clinical report"
// @Success      201      {object}  response.Response{data=service.ClinicalResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/clinical/reports [post]
func (h *ClinicalHandler) Create(c *gin.Context) {
	var req service.CreateClinicalRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.clinicalService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// Update edits a clinical report
// @Summary      Update clinical report
// @Tags         clinical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Clinical report ID"
// @Param        payload  body      service.UpdateClinicalRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.ClinicalResponse}
// @Router       /api/clinical/reports/{id} [put]
func (h *ClinicalHandler) Update(c *gin.Context) {
	var req service.UpdateClinicalRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.clinicalService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Delete removes a clinical report
// @Summary      Delete clinical report
// @Tags         clinical
// @Security     BearerAuth
// @Param        id   path  string  true  "Clinical report ID"
// @Success      204
// @Router       /api/clinical/reports/{id} [delete]
func (h *ClinicalHandler) Delete(c *gin.Context) {
	if err := h.clinicalService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
