package handler

import (
	"net/http"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	auth              *middleware.Authenticator
}

func NewStatisticsHandler(statisticsService service.StatisticsService, auth *middleware.Authenticator) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/stats")
	{
		statsGroup.Use(h.auth.RequireRole(lifecycle.RoleAdmin, lifecycle.RoleVolunteer))
		statsGroup.GET("/summary", h.GetSummary)
		statsGroup.GET("/trend", h.GetTrend)
	}
}

// @Summary      Get Dashboard Statistics
// @Description  Users, funding, donation requests by status and community issue totals
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response{data=model.StatisticsResponse}
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      403 {object} response.Response "Forbidden"
// @Security     BearerAuth
// @Router       /stats/summary [get]
func (h *StatisticsHandler) GetSummary(c *gin.Context) {
	stats, err := h.statisticsService.Summary(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetTrend returns activity grouped by period
// @Summary      Get activity trend
// @Description  Funding, issue contributions and new donation requests grouped by day, week, month or year
// @Tags         Statistics
// @Produce      json
// @Param        groupBy    query     string  false  "day | week | month | year (default month)"
// @Param        startDate  query     string  false  "YYYY-MM-DD, inclusive"
// @Param        endDate    query     string  false  "YYYY-MM-DD, inclusive"
// @Success      200        {object}  response.Response{data=[]service.TrendPoint}
// @Failure      400        {object}  response.Response
// @Security     BearerAuth
// @Router       /stats/trend [get]
func (h *StatisticsHandler) GetTrend(c *gin.Context) {
	var filter service.TrendFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badPayload(c, err)
		return
	}

	points, err := h.statisticsService.Trend(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}
