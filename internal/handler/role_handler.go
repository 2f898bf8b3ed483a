package handler

import (
	"net/http"

	"surveillance/internal/service"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RoleHandler struct {
	roleService service.RoleService
	log         *zap.Logger
}

func NewRoleHandler(roleService service.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, log: log}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/auth/roles", h.ListRoles)
}

// ListRoles returns the roles a registrant may request
// @Summary      List roles
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/auth/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}
