package handler

import (
	"net/http"

	"bloodcare/internal/location"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	catalog *location.Catalog
}

func NewLocationHandler(catalog *location.Catalog) *LocationHandler {
	return &LocationHandler{catalog: catalog}
}

func (h *LocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/locations")
	{
		group.GET("/districts", h.Districts)
		group.GET("/districts/:district/upazilas", h.Upazilas)
	}
}

// Districts handles GET /locations/districts
// @Summary      List districts
// @Tags         locations
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /locations/districts [get]
func (h *LocationHandler) Districts(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.catalog.Districts()))
}

// Upazilas handles GET /locations/districts/:district/upazilas
// @Summary      List the upazilas of a district
// @Description  Unknown districts return an empty list
// @Tags         locations
// @Produce      json
// @Param        district  path      string  true  "District name"
// @Success      200       {object}  response.Response{data=[]string}
// @Router       /locations/districts/{district}/upazilas [get]
func (h *LocationHandler) Upazilas(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.catalog.Upazilas(c.Param("district"))))
}
