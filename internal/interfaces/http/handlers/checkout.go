// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/checkout"
	"github.com/sirupsen/logrus"
)

// IdempotencyHeader carries the client's submission token
const IdempotencyHeader = "Idempotency-Key"

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	storage         cart.Storage
	config          *config.Config
	log             *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, storage cart.Storage, cfg *config.Config, log *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		storage:         storage,
		config:          cfg,
		log:             log,
	}
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	store, _, ok := loadCart(c, h.storage, h.config, h.log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary retrieved successfully",
		"data":    h.checkoutService.Summarize(store.Cart()),
	})
}

// GetPaymentMethods handles GET /checkout/payment-methods
func (h *CheckoutHandler) GetPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment methods retrieved successfully",
		"data":    h.checkoutService.PaymentMethods(),
	})
}

// Submit handles POST /checkout. A failed submission echoes the form back so the client can
// show it again unchanged.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if key := strings.TrimSpace(c.GetHeader(IdempotencyHeader)); key != "" {
		req.Form.IdempotencyKey = key
	}

	store, session, ok := loadCart(c, h.storage, h.config, h.log)
	if !ok {
		return
	}

	flow, result, err := h.checkoutService.Submit(c.Request.Context(), store, session, &req)
	if err != nil {
		status, body := errorBody(c, h.log, err, "Failed to place order")
		body["state"] = flow.State()
		body["form"] = flow.Form()
		c.JSON(status, body)
		return
	}

	status := http.StatusCreated
	message := "Order placed successfully"
	if result.Replayed {
		status = http.StatusOK
		message = "Order already placed"
	}
	c.JSON(status, gin.H{
		"message": message,
		"data":    result,
	})
}
