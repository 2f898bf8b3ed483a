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

type AuditHandler struct {
	auditService service.AuditService
	tokens       *auth.TokenManager
	log          *zap.Logger
}

func NewAuditHandler(auditService service.AuditService, tokens *auth.TokenManager, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, tokens: tokens, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/analytics/audit-logs")
	group.Use(middleware.RequireAuth(h.tokens))
	{
		group.GET("", h.GetAuditLogs)
		group.GET("/:id", h.GetAuditLog)
	}
}

// GetAuditLogs retrieves paginated audit records, newest first
// @Summary      Get audit logs
// @Description  District and state administrators only
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action  query     string  false  "Filter by action, e.g. VERIFIED_REPORT"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/analytics/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := listParams(c)
	logs, total, err := h.auditService.List(c.Request.Context(), caller(c), c.Query("action"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, logs, total, params)
}

// GetAuditLog returns one audit record
// @Summary      Get audit log
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Audit log ID"
// @Success      200  {object}  response.Response{data=service.AuditLogResponse}
// @Router       /api/analytics/audit-logs/{id} [get]
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	entry, err := h.auditService.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}
