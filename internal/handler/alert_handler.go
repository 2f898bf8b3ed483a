package handler

import (
	"net/http"

	"surveillance/internal/auth"
	"surveillance/internal/middleware"
	"surveillance/internal/service"
	"surveillance/internal/tasks"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertHandler struct {
	alertService service.AlertService
	riskService  service.RiskScoreService
	queue        tasks.Queue
	tokens       *auth.TokenManager
	log          *zap.Logger
}

func NewAlertHandler(alertService service.AlertService, riskService service.RiskScoreService, queue tasks.Queue, tokens *auth.TokenManager, log *zap.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, riskService: riskService, queue: queue, tokens: tokens, log: log}
}

// TaskResult is the state of a queued background job.
type TaskResult struct {
	TaskID string `json:"task_id"`
	Done   bool   `json:"done"`
	Result string `json:"result,omitempty"`
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(h.tokens)

	alerts := router.Group("/api/alerts/app-alerts")
	alerts.Use(requireAuth)
	{
		alerts.GET("", h.ListAlerts)
		alerts.GET("/:id", h.GetAlert)
		alerts.POST("", h.CreateAlert)
		alerts.PUT("/:id", h.UpdateAlert)
		alerts.DELETE("/:id", h.DeleteAlert)
	}

	scores := router.Group("/api/analytics/risk-scores")
	scores.Use(requireAuth)
	{
		scores.GET("", h.ListRiskScores)
		scores.GET("/:id", h.GetRiskScore)
		scores.POST("", h.CreateRiskScore)
		scores.PUT("/:id", h.UpdateRiskScore)
		scores.DELETE("/:id", h.DeleteRiskScore)
		scores.POST("/predict/:district_id", h.Predict)
	}

	router.GET("/api/analytics/tasks/:task_id", requireAuth, h.GetTask)
}

// ListAlerts returns district alerts
// @Summary      List alerts
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        district_id  query     string  false  "District ID"
// @Param        status    query     string  false  "Open, Acknowledged or Resolved"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/alerts/app-alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	params := listParams(c)
	query := service.AlertQuery{DistrictID: optionalQuery(c, "district_id"), Status: c.Query("status")}

	items, total, err := h.alertService.List(c.Request.Context(), query, params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetAlert returns one alert
// @Summary      Get alert
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Alert ID"
// @Success      200  {object}  response.Response{data=service.AlertResponse}
// @Router       /api/alerts/app-alerts/{id} [get]
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alert, err := h.alertService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alert))
}

// CreateAlert raises an alert manually
// @Summary      Create alert
// @Tags         alerts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AlertRequest  true  "Alert"
// @Success      201      {object}  response.Response{data=service.AlertResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/alerts/app-alerts [post]
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req service.AlertRequest
	if !bindJSON(c, &req) {
		return
	}

	alert, err := h.alertService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, alert))
}

// UpdateAlert edits an alert or moves its status
// @Summary      Update alert
// @Tags         alerts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Alert ID"
// @Param        payload  body      service.UpdateAlertRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.AlertResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/alerts/app-alerts/{id} [put]
func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	var req service.UpdateAlertRequest
	if !bindJSON(c, &req) {
		return
	}

	alert, err := h.alertService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, alert))
}

// DeleteAlert removes an alert
// @Summary      Delete alert
// @Tags         alerts
// @Security     BearerAuth
// @Param        id   path  string  true  "Alert ID"
// @Success      204
// @Router       /api/alerts/app-alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	if err := h.alertService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRiskScores returns risk scores, newest first
// @Summary      List risk scores
// @Tags         risk-scores
// @Security     BearerAuth
// @Produce      json
// @Param        district_id  query     string  false  "District ID"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/analytics/risk-scores [get]
func (h *AlertHandler) ListRiskScores(c *gin.Context) {
	params := listParams(c)
	items, total, err := h.riskService.List(c.Request.Context(), optionalQuery(c, "district_id"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, items, total, params)
}

// GetRiskScore returns one risk score
// @Summary      Get risk score
// @Tags         risk-scores
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Risk score ID"
// @Success      200  {object}  response.Response{data=service.RiskScoreResponse}
// @Router       /api/analytics/risk-scores/{id} [get]
func (h *AlertHandler) GetRiskScore(c *gin.Context) {
	score, err := h.riskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, score))
}

// CreateRiskScore records a district risk score
// @Summary      Create risk score
// @Tags         risk-scores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RiskScoreRequest  true  "Risk score"
// @Success      201      {object}  response.Response{data=service.RiskScoreResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/analytics/risk-scores [post]
func (h *AlertHandler) CreateRiskScore(c *gin.Context) {
	var req service.RiskScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	score, err := h.riskService.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, score))
}

// UpdateRiskScore edits a risk score
// @Summary      Update risk score
// @Tags         risk-scores
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Risk score ID"
// @Param        payload  body      service.UpdateRiskScoreRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.RiskScoreResponse}
// @Router       /api/analytics/risk-scores/{id} [put]
func (h *AlertHandler) UpdateRiskScore(c *gin.Context) {
	var req service.UpdateRiskScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	score, err := h.riskService.Update(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, score))
}

// DeleteRiskScore removes a risk score
// @Summary      Delete risk score
// @Tags         risk-scores
// @Security     BearerAuth
// @Param        id   path  string  true  "Risk score ID"
// @Success      204
// @Router       /api/analytics/risk-scores/{id} [delete]
func (h *AlertHandler) DeleteRiskScore(c *gin.Context) {
	if err := h.riskService.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Predict queues a risk prediction for a district
// @Summary      Queue risk prediction
// @Tags         risk-scores
// @Security     BearerAuth
// @Produce      json
// @Param        district_id  path      string  true  "District ID"
// @Success      202          {object}  response.Response{data=service.PredictionResponse}
// @Failure      404          {object}  response.Response
// @Router       /api/analytics/risk-scores/predict/{district_id} [post]
func (h *AlertHandler) Predict(c *gin.Context) {
	result, err := h.riskService.Predict(c.Request.Context(), caller(c), c.Param("district_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, result))
}

// GetTask reports the state of a queued job
// @Summary      Background task result
// @Tags         risk-scores
// @Security     BearerAuth
// @Produce      json
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {object}  response.Response{data=TaskResult}
// @Router       /api/analytics/tasks/{task_id} [get]
func (h *AlertHandler) GetTask(c *gin.Context) {
	taskID := c.Param("task_id")
	result, done, err := h.queue.Result(c.Request.Context(), tasks.Handle(taskID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, TaskResult{TaskID: taskID, Done: done, Result: result}))
}
