package handler

import (
	"errors"
	"net/http"

	"bloodcare/internal/service"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service sentinels to status codes. Anything unknown is a 500;
// the cause is attached to the context for the request logger and not shown to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
