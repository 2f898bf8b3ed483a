package handler

import (
	"net/http"

	"surveillance/internal/auth"
	"surveillance/internal/middleware"
	"surveillance/internal/service"
	"surveillance/pkg/apperror"
	"surveillance/pkg/pagination"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps err to its HTTP status. Internal failures are logged and never leak details.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	resp := response.FromError(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(resp.StatusCode, resp)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.KindError(apperror.KindValidation, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func listParams(c *gin.Context) service.ListParams {
	p := pagination.Parse(c)
	return service.ListParams{Page: p.Page, Limit: p.Limit}
}

func respondPage(c *gin.Context, items interface{}, total int64, params service.ListParams) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// caller returns the identity set by middleware.RequireAuth. Routes using it are always behind that middleware.
func caller(c *gin.Context) auth.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
