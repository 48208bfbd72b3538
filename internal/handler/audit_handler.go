package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/service"
	"orderdesk/pkg/response"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/orders/:id/history", h.GetOrderHistory)
}

// GetOrderHistory returns the audit trail of an order, newest first
// @Summary      Order history
// @Description  Lists recorded mutations of an order. Empty when no database is configured.
// @Tags         audit
// @Produce      json
// @Param        id     path      string  true   "Order ID"
// @Param        limit  query     int     false  "Max entries (default 50)"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/orders/{id}/history [get]
func (h *AuditHandler) GetOrderHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.auditService.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": len(logs),
	}))
}
