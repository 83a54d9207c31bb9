package handler

import (
	"net/http"

	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/pagination"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FundHandler struct {
	service service.FundService
	auth    *middleware.Authenticator
}

func NewFundHandler(svc service.FundService, auth *middleware.Authenticator) *FundHandler {
	return &FundHandler{service: svc, auth: auth}
}

// FundList is a ledger page plus the all-time total
type FundList struct {
	pagination.Result[service.FundResponse]
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (h *FundHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/funds")
	group.Use(h.auth.RequireAuth())
	{
		group.GET("", h.List)
		group.POST("", h.Record)
	}
}

// Record handles POST /funds
// @Summary      Record a completed funding payment
// @Tags         funds
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordFundDTO  true  "Payment details"
// @Success      201      {object}  response.Response{data=service.FundResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /funds [post]
func (h *FundHandler) Record(c *gin.Context) {
	var dto service.RecordFundDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.service.Record(c.Request.Context(), middleware.CurrentUser(c), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// List handles GET /funds
// @Summary      List funding entries
// @Tags         funds
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=FundList}
// @Router       /funds [get]
func (h *FundHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, sum, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, FundList{
		Result:      pagination.NewResult(items, total, p),
		TotalAmount: sum,
	}))
}
