// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ActiveProducts finds products that can be put in a cart
type ActiveProducts interface {
	GetActive(ctx context.Context, id string) (*product.Product, error)
}

// CartHandler handles cart endpoints. The panel and page views read the same store.
type CartHandler struct {
	storage  cart.Storage
	products ActiveProducts
	config   *config.Config
	log      *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(storage cart.Storage, products ActiveProducts, cfg *config.Config, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		storage:  storage,
		products: products,
		config:   cfg,
		log:      log,
	}
}

// AddItemRequest puts a product in the cart
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// ChangeQuantityRequest steps a line's quantity up or down by one
type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required,oneof=-1 1"`
}

// PanelLine is a cart line in the slide-over panel
type PanelLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// PanelView is the compact cart shown in the slide-over panel
type PanelView struct {
	Items           []PanelLine     `json:"items"`
	ItemCount       int             `json:"itemCount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay string          `json:"subtotalDisplay"`
}

// PageLine is a cart line on the cart page
type PageLine struct {
	PanelLine
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// PageView is the full cart page with the estimated order total
type PageView struct {
	Items          []PageLine      `json:"items"`
	ItemCount      int             `json:"itemCount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`
	Display        struct {
		Subtotal       string `json:"subtotal"`
		ShippingCharge string `json:"shippingCharge"`
		EstimatedTotal string `json:"estimatedTotal"`
	} `json:"display"`
}

// NewPanelView shapes c for the slide-over panel
func NewPanelView(c cart.Cart, currency string) PanelView {
	v := PanelView{
		Items:     make([]PanelLine, len(c.Items)),
		ItemCount: c.TotalItemCount(),
		Subtotal:  c.Subtotal(),
	}
	for i, line := range c.Items {
		v.Items[i] = panelLine(line)
	}
	v.SubtotalDisplay = pricing.Display(currency, v.Subtotal, nil)
	return v
}

// NewPageView shapes c for the cart page
func NewPageView(c cart.Cart, shipping decimal.Decimal, currency string) PageView {
	v := PageView{
		Items:          make([]PageLine, len(c.Items)),
		ItemCount:      c.TotalItemCount(),
		Subtotal:       c.Subtotal(),
		ShippingCharge: shipping,
	}
	for i, line := range c.Items {
		v.Items[i] = PageLine{PanelLine: panelLine(line), LineTotal: line.LineTotal()}
	}
	if !c.IsEmpty() {
		v.EstimatedTotal = pricing.Round(v.Subtotal.Add(shipping))
	}
	v.Display.Subtotal = pricing.Display(currency, v.Subtotal, nil)
	v.Display.ShippingCharge = pricing.Display(currency, shipping, nil)
	v.Display.EstimatedTotal = pricing.Display(currency, v.EstimatedTotal, nil)
	return v
}

func panelLine(line cart.LineItem) PanelLine {
	return PanelLine{
		ProductID: line.ProductID,
		Name:      line.Name,
		Image:     line.Image,
		UnitPrice: line.UnitPrice(),
		Quantity:  line.Quantity,
	}
}

// GetPanel handles GET /cart/panel
func (h *CartHandler) GetPanel(c *gin.Context) {
	store, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    NewPanelView(store.Cart(), h.config.Store.Currency),
	})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    h.page(store.Cart()),
	})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.products.GetActive(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, h.log, err, "Failed to add item to cart")
		return
	}

	store, ok := h.load(c)
	if !ok {
		return
	}

	updated, added, err := store.AddItem(c.Request.Context(), p.Snapshot(), req.Quantity)
	if err != nil {
		respondError(c, h.log, err, "Failed to add item to cart")
		return
	}

	message := "Quantity increased"
	if added {
		message = "Added to cart"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    h.page(updated),
	})
}

// ChangeQuantity handles PATCH /cart/items/:productId
func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	var req ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	store, ok := h.load(c)
	if !ok {
		return
	}

	updated, err := store.SetQuantity(c.Request.Context(), c.Param("productId"), req.Delta)
	if err != nil {
		respondError(c, h.log, err, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    h.page(updated),
	})
}

// RemoveItem handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	store, ok := h.load(c)
	if !ok {
		return
	}

	updated, err := store.RemoveItem(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, h.log, err, "Failed to remove item from cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    h.page(updated),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.load(c)
	if !ok {
		return
	}

	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, h.log, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    h.page(cart.Cart{}),
	})
}

func (h *CartHandler) page(c cart.Cart) PageView {
	return NewPageView(c, h.config.Store.Shipping(), h.config.Store.Currency)
}

// load binds the store to the caller's session and rehydrates it
func (h *CartHandler) load(c *gin.Context) (*cart.Store, bool) {
	store, _, ok := loadCart(c, h.storage, h.config, h.log)
	return store, ok
}

func loadCart(c *gin.Context, storage cart.Storage, cfg *config.Config, log *logrus.Logger) (*cart.Store, string, bool) {
	id := sessionID(c, int(cfg.Store.CartTTL.Seconds()))
	store := cart.NewStore(storage, cart.SessionKey(id))
	if _, err := store.Load(c.Request.Context()); err != nil {
		log.WithError(err).WithField("session_id", id).Error("Failed to load cart")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Cart is temporarily unavailable",
		})
		return nil, id, false
	}
	return store, id, true
}
