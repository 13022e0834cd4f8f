// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/interfaces/http/middleware"
	"github.com/sirupsen/logrus"
)

// InvoiceRenderer renders an order invoice as PDF
type InvoiceRenderer interface {
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
}

// OrderHandler handles back office order endpoints
type OrderHandler struct {
	orderService *order.Service
	invoices     InvoiceRenderer
	log          *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, invoices InvoiceRenderer, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		invoices:     invoices,
		log:          log,
	}
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.orderService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), id, &req, middleware.GetSubject(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    o,
	})
}

// DeleteOrder handles DELETE /admin/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id, middleware.GetSubject(c)); err != nil {
		respondError(c, h.log, err, "Failed to delete order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
	})
}

// CreateStaffOrder handles POST /admin/orders/staff
func (h *OrderHandler) CreateStaffOrder(c *gin.Context) {
	var req order.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if key := strings.TrimSpace(c.GetHeader(IdempotencyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	o, replayed, err := h.orderService.PlaceStaffOrder(c.Request.Context(), &req, middleware.GetSubject(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to create order")
		return
	}

	if replayed {
		c.JSON(http.StatusOK, gin.H{
			"message": "Order already recorded",
			"data":    o,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    o,
	})
}

// DownloadInvoice handles GET /admin/orders/:id/invoice
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve order")
		return
	}

	buf, err := h.invoices.GenerateInvoice(o)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate invoice")
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", o.OrderNumber)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetStatuses handles GET /admin/orders/statuses
func (h *OrderHandler) GetStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Order statuses retrieved successfully",
		"data":    order.Statuses,
	})
}
