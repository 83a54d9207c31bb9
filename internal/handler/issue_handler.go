package handler

import (
	"net/http"
	"strconv"

	"bloodcare/internal/issuefilter"
	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	service service.IssueService
	auth    *middleware.Authenticator
}

func NewIssueHandler(svc service.IssueService, auth *middleware.Authenticator) *IssueHandler {
	return &IssueHandler{service: svc, auth: auth}
}

func (h *IssueHandler) RegisterRoutes(router *gin.RouterGroup) {
	issues := router.Group("/issues")
	{
		issues.GET("", h.List)
		issues.GET("/latest", h.Latest)
		issues.GET("/mine", h.auth.RequireAuth(), h.Mine)
		issues.GET("/:id", h.Get)
		issues.POST("", h.auth.RequireAuth(), h.Create)
		issues.PUT("/:id", h.auth.RequireAuth(), h.Update)
		issues.DELETE("/:id", h.auth.RequireAuth(), h.Delete)
		issues.POST("/:id/contributions", h.auth.RequireAuth(), h.Contribute)
	}
	router.GET("/contributions/me", h.auth.RequireAuth(), h.MyContributions)
}

// List handles GET /issues
// @Summary      Filter community issues
// @Description  Case-insensitive category/status filter and free-text search, six issues per page
// @Tags         issues
// @Produce      json
// @Param        category  query     string  false  "Category or all"
// @Param        status    query     string  false  "ongoing | in-progress | resolved | all"
// @Param        search    query     string  false  "Search text"
// @Param        page      query     int     false  "Page number"
// @Success      200       {object}  response.Response{data=service.IssueListResponse}
// @Router       /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	var filter issuefilter.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badPayload(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	res, err := h.service.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Latest handles GET /issues/latest
// @Summary      Most recent issues
// @Tags         issues
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.IssueResponse}
// @Router       /issues/latest [get]
func (h *IssueHandler) Latest(c *gin.Context) {
	res, err := h.service.Latest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Mine handles GET /issues/mine
// @Summary      Issues reported by the caller
// @Tags         issues
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.IssueResponse}
// @Router       /issues/mine [get]
func (h *IssueHandler) Mine(c *gin.Context) {
	res, err := h.service.Mine(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Get handles GET /issues/:id
// @Summary      Issue details with contributions
// @Tags         issues
// @Produce      json
// @Param        id   path      string  true  "Issue ID"
// @Success      200  {object}  response.Response{data=service.IssueDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create handles POST /issues
// @Summary      Report an issue
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateIssueDTO  true  "Issue"
// @Success      201      {object}  response.Response{data=service.IssueResponse}
// @Failure      400      {object}  response.Response
// @Router       /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	var dto service.CreateIssueDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Update handles PUT /issues/:id
// @Summary      Edit an issue
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Issue ID"
// @Param        payload  body      service.UpdateIssueDTO  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.IssueResponse}
// @Failure      403      {object}  response.Response
// @Router       /issues/{id} [put]
func (h *IssueHandler) Update(c *gin.Context) {
	var dto service.UpdateIssueDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete handles DELETE /issues/:id
// @Summary      Delete an issue
// @Tags         issues
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Issue ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /issues/{id} [delete]
func (h *IssueHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Contribute handles POST /issues/:id/contributions
// @Summary      Contribute to an issue
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Issue ID"
// @Param        payload  body      service.ContributionDTO  true  "Contribution"
// @Success      201      {object}  response.Response{data=service.ContributionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /issues/{id}/contributions [post]
func (h *IssueHandler) Contribute(c *gin.Context) {
	var dto service.ContributionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.Contribute(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// MyContributions handles GET /contributions/me
// @Summary      The caller's contributions
// @Tags         issues
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ContributionResponse}
// @Router       /contributions/me [get]
func (h *IssueHandler) MyContributions(c *gin.Context) {
	res, err := h.service.MyContributions(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
