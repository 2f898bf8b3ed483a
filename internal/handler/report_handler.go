package handler

import (
	"fmt"
	"net/http"

	"surveillance/internal/auth"
	"surveillance/internal/middleware"
	"surveillance/internal/service"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService service.ReportService
	waterService  service.WaterQualityService
	tokens        *auth.TokenManager
	log           *zap.Logger
}

func NewReportHandler(reportService service.ReportService, waterService service.WaterQualityService, tokens *auth.TokenManager, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, waterService: waterService, tokens: tokens, log: log}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/asha/reports")
	reports.Use(middleware.RequireAuth(h.tokens))
	{
		reports.GET("", h.ListReports)
		reports.GET("/export", h.ExportReports)
		reports.GET("/:id", h.GetReport)
		reports.POST("", h.CreateReport)
		reports.PUT("/:id", h.UpdateReport)
		reports.DELETE("/:id", h.DeleteReport)
		reports.POST("/:id/verify", h.VerifyReport)
		reports.POST("/:id/transition", h.TransitionReport)
	}

	water := router.Group("/api/asha/water-quality")
	water.Use(middleware.RequireAuth(h.tokens))
	{
		water.GET("", h.ListWaterQuality)
		water.GET("/:id", h.GetWaterQuality)
		water.POST("", h.CreateWaterQuality)
		water.PUT("/:id", h.UpdateWaterQuality)
		water.DELETE("/:id", h.DeleteWaterQuality)
	}
}

// ListReports returns field reports
// @Summary      List ASHA reports
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        status    query     string  false  "SUBMITTED, VERIFIED, REJECTED, ESCALATED or CLOSED"
// @Param        district_id  query     string  false  "District ID"
// @Param        village_id   query     string  false  "Village ID"
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/asha/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	params := listParams(c)
	query := service.ReportQuery{
		Status:     c.Query("status"),
		DistrictID: optionalQuery(c, "district_id"),
		VillageID:  optionalQuery(c, "village_id"),
	}

	items, total, err := h.reportService.List(c.Request.Context(), query, params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetReport returns one report
// @Summary      Get ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/asha/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// CreateReport files a report; a high severity report raises a district alert
// @Summary      Submit ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReportRequest  true  "Report"
// @Success      201      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/asha/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req service.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// UpdateReport edits a report
// @Summary      Update ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Report ID"
// @Param        payload  body      service.UpdateReportRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/asha/reports/{id} [put]
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var req service.UpdateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// DeleteReport removes a report
// @Summary      Delete ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Param        id   path  string  true  "Report ID"
// @Success      204
// @Failure      403  {object}  response.Response
// @Router       /api/asha/reports/{id} [delete]
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	if err := h.reportService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyReport marks a submitted report verified
// @Summary      Verify ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/asha/reports/{id}/verify [post]
func (h *ReportHandler) VerifyReport(c *gin.Context) {
	report, err := h.reportService.Verify(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// TransitionReport moves a report along its lifecycle
// @Summary      Transition ASHA report
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Report ID"
// @Param        payload  body      service.TransitionRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/asha/reports/{id}/transition [post]
func (h *ReportHandler) TransitionReport(c *gin.Context) {
	var req service.TransitionRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportService.Transition(c.Request.Context(), caller(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ExportReports downloads reports as an xlsx workbook
// @Summary      Export ASHA reports
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        district_id  query  string  false  "District ID"
// @Success      200
// @Failure      403  {object}  response.Response
// @Router       /api/asha/reports/export [get]
func (h *ReportHandler) ExportReports(c *gin.Context) {
	result, err := h.reportService.Export(c.Request.Context(), caller(c), optionalQuery(c, "district_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if result.ArchiveKey != "" {
		c.Header("X-Archive-Key", result.ArchiveKey)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// ListWaterQuality returns water readings
// @Summary      List water quality readings
// @Tags         water-quality
// @Security     BearerAuth
// @Produce      json
// @Param        village_id  query     string  false  "Village ID"
// @Param        mine     query     bool    false  "Only readings recorded by the caller"
// @Success      200      {object}  response.Response{data=response.Page}
// @Router       /api/asha/water-quality [get]
func (h *ReportHandler) ListWaterQuality(c *gin.Context) {
	params := listParams(c)
	query := service.WaterQualityQuery{
		VillageID: optionalQuery(c, "village_id"),
		Mine:      c.Query("mine") == "true",
	}

	items, total, err := h.waterService.List(c.Request.Context(), caller(c), query, params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetWaterQuality returns one reading
// @Summary      Get water quality reading
// @Tags         water-quality
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reading ID"
// @Success      200  {object}  response.Response{data=service.WaterQualityResponse}
// @Router       /api/asha/water-quality/{id} [get]
func (h *ReportHandler) GetWaterQuality(c *gin.Context) {
	reading, err := h.waterService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reading))
}

// CreateWaterQuality records a reading
// @Summary      Record water quality
// @Tags         water-quality
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.WaterQualityRequest  true  "Reading"
// @Success      201      {object}  response.Response{data=service.WaterQualityResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/asha/water-quality [post]
func (h *ReportHandler) CreateWaterQuality(c *gin.Context) {
	var req service.WaterQualityRequest
	if !bindJSON(c, &req) {
		return
	}

	reading, err := h.waterService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reading))
}

// UpdateWaterQuality edits a reading
// @Summary      Update water quality reading
// @Tags         water-quality
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Reading ID"
// @Param        payload  body      service.WaterQualityRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.WaterQualityResponse}
// @Router       /api/asha/water-quality/{id} [put]
func (h *ReportHandler) UpdateWaterQuality(c *gin.Context) {
	var req service.WaterQualityRequest
	if !bindJSON(c, &req) {
		return
	}

	reading, err := h.waterService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reading))
}

// DeleteWaterQuality removes a reading
// @Summary      Delete water quality reading
// @Tags         water-quality
// @Security     BearerAuth
// @Param        id   path  string  true  "Reading ID"
// @Success      204
// @Router       /api/asha/water-quality/{id} [delete]
func (h *ReportHandler) DeleteWaterQuality(c *gin.Context) {
	if err := h.waterService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
