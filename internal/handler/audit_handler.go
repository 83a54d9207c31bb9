package handler

import (
	"net/http"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/pagination"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Authenticator
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Authenticator) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth.RequireRole(lifecycle.RoleAdmin)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns paginated audit entries, newest first
// @Summary      Get audit logs
// @Description  Lifecycle transitions, deletions and account changes with the acting user
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action      query     string  false  "Only this action, e.g. CONFIRM_DONATION"
// @Param        actorEmail  query     string  false  "Only entries by this user"
// @Param        entityId    query     string  false  "History of one request, issue or user"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 10)"
// @Success      200         {object}  response.Response{data=pagination.Result[service.AuditLogResponse]}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	var filter service.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badPayload(c, err)
		return
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), middleware.CurrentUser(c), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewResult(logs, total, p)))
}
