package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/middleware"
	"orderdesk/internal/service"
	"orderdesk/pkg/pagination"
	"orderdesk/pkg/response"
)

type OrderHandler struct {
	orders    service.OrderService
	invoices  service.InvoiceService
	mutations service.MutationService
}

func NewOrderHandler(orders service.OrderService, invoices service.InvoiceService, mutations service.MutationService) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		invoices:  invoices,
		mutations: mutations,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("", h.ListOrders)
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.DeleteOrder)
		orders.GET("/:id/invoice", h.GetInvoice)
	}
}

// ListOrders returns a page of orders with list statuses
// @Summary      List orders
// @Description  Retrieves a paginated list of orders. Status is collapsed to pending or completed.
// @Tags         orders
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      502    {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orders.ListOrders(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetOrder returns an order with prices, names and totals filled in
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder creates a pending order and its draft invoice
// @Summary      Create order
// @Description  Creates a pending order. A draft invoice at 21% tax is generated alongside.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	order, err := h.mutations.CreateOrder(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateOrder edits a pending order
// @Summary      Update order
// @Description  Replaces lines and notes of a pending order. The version comes from the body or the If-Match header.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id          path      string                      true   "Order ID"
// @Param        invoice_id  query     string                      false  "Linked invoice ID"
// @Param        If-Match    header    int                         false  "Expected order version"
// @Param        payload     body      service.UpdateOrderRequest  true   "Update Order Payload"
// @Success      200         {object}  response.Response{data=model.Order}
// @Failure      409         {object}  response.Response
// @Failure      422         {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if req.Version == 0 {
		if v := strings.Trim(c.GetHeader("If-Match"), `" `); v != "" {
			version, err := strconv.Atoi(v)
			if err != nil {
				badRequest(c, "Invalid If-Match header")
				return
			}
			req.Version = version
		}
	}

	order, err := h.mutations.UpdateOrder(c.Request.Context(), middleware.UserID(c), c.Param("id"), req, c.Query("invoice_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes a pending order
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.mutations.DeleteOrder(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"id": id}))
}

// GetInvoice returns what the invoice view renders for an order
// @Summary      Get invoice display
// @Description  Resolves the invoice for an order, or synthesizes one from the order lines.
// @Tags         orders
// @Produce      json
// @Param        id          path      string  true   "Order ID"
// @Param        invoice_id  query     string  false  "Invoice ID hint"
// @Success      200         {object}  response.Response{data=model.InvoiceDisplay}
// @Failure      404         {object}  response.Response
// @Router       /api/orders/{id}/invoice [get]
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	display, err := h.invoices.GetInvoiceDisplay(c.Request.Context(), c.Param("id"), c.Query("invoice_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if display == nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "no invoice to display for this order"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, display))
}
