package handler

import (
	"net/http"

	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/pagination"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type DonationRequestHandler struct {
	service service.DonationRequestService
	auth    *middleware.Authenticator
}

func NewDonationRequestHandler(svc service.DonationRequestService, auth *middleware.Authenticator) *DonationRequestHandler {
	return &DonationRequestHandler{service: svc, auth: auth}
}

func (h *DonationRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/public/donation-requests", h.ListPublic)

	group := router.Group("/donation-requests")
	group.Use(h.auth.RequireAuth())
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/me", h.ListMine)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Update)
		group.PATCH("/:id/status", h.UpdateStatus)
		group.DELETE("/:id", h.Delete)
	}
}

func listFilter(c *gin.Context) (service.DonationRequestFilter, pagination.Params) {
	p := pagination.Parse(c)
	return service.DonationRequestFilter{
		Status:     c.Query("status"),
		OwnerEmail: c.Query("ownerEmail"),
		Page:       p.Page,
		Limit:      p.Limit,
	}, p
}

// Create handles POST /donation-requests
// @Summary      Create a donation request
// @Description  Creates a pending request owned by the caller. Blocked users are refused.
// @Tags         donation-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDonationRequestDTO  true  "Request details"
// @Success      201      {object}  response.Response{data=service.DonationRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /donation-requests [post]
func (h *DonationRequestHandler) Create(c *gin.Context) {
	var dto service.CreateDonationRequestDTO
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

// List handles GET /donation-requests
// @Summary      List donation requests
// @Description  Admins and volunteers see every request; donors only their own
// @Tags         donation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "pending | inprogress | done | canceled | all"
// @Param        ownerEmail  query     string  false  "Requester email (staff only)"
// @Param        page        query     int     false  "Page number"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  response.Response{data=pagination.Result[service.DonationRequestResponse]}
// @Router       /donation-requests [get]
func (h *DonationRequestHandler) List(c *gin.Context) {
	filter, p := listFilter(c)
	items, total, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewResult(items, total, p)))
}

// ListMine handles GET /donation-requests/me
// @Summary      List my donation requests
// @Tags         donation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Result[service.DonationRequestResponse]}
// @Router       /donation-requests/me [get]
func (h *DonationRequestHandler) ListMine(c *gin.Context) {
	filter, p := listFilter(c)
	items, total, err := h.service.ListMine(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewResult(items, total, p)))
}

// ListPublic handles GET /public/donation-requests
// @Summary      Pending donation requests
// @Description  Public list of requests still looking for a donor
// @Tags         donation-requests
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=pagination.Result[service.DonationRequestResponse]}
// @Router       /public/donation-requests [get]
func (h *DonationRequestHandler) ListPublic(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.service.ListPublicPending(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewResult(items, total, p)))
}

// Get handles GET /donation-requests/:id
// @Summary      Get a donation request
// @Tags         donation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.DonationRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /donation-requests/{id} [get]
func (h *DonationRequestHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Update handles PUT /donation-requests/:id
// @Summary      Edit a donation request
// @Description  Requester or admin, while the request is pending or in progress
// @Tags         donation-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Request ID"
// @Param        payload  body      service.UpdateDonationRequestDTO  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.DonationRequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /donation-requests/{id} [put]
func (h *DonationRequestHandler) Update(c *gin.Context) {
	var dto service.UpdateDonationRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.UpdateFields(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateStatus handles PATCH /donation-requests/:id/status
// @Summary      Change a donation request's status
// @Description  inprogress confirms the caller as donor; done and canceled close the request.
// @Description  409 means the request moved on since it was read.
// @Tags         donation-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.UpdateStatusDTO  true  "Target status"
// @Success      200      {object}  response.Response{data=service.DonationRequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /donation-requests/{id}/status [patch]
func (h *DonationRequestHandler) UpdateStatus(c *gin.Context) {
	var dto service.UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete handles DELETE /donation-requests/:id
// @Summary      Delete a donation request
// @Tags         donation-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /donation-requests/{id} [delete]
func (h *DonationRequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
