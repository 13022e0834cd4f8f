// internal/interfaces/http/handlers/dealer.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/domain/dealer"
	"github.com/sirupsen/logrus"
)

// DealerHandler handles membership requests, the dealer catalog and deals
type DealerHandler struct {
	dealerService *dealer.Service
	log           *logrus.Logger
}

// NewDealerHandler creates a new dealer handler
func NewDealerHandler(dealerService *dealer.Service, log *logrus.Logger) *DealerHandler {
	return &DealerHandler{
		dealerService: dealerService,
		log:           log,
	}
}

// SubmitMembership handles POST /membership (multipart)
func (h *DealerHandler) SubmitMembership(c *gin.Context) {
	var req dealer.MembershipRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ShopPic = formFile(c, "shopPic")
	req.ShopCard = formFile(c, "shopCard")

	m, err := h.dealerService.SubmitMembership(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to submit membership request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Membership request submitted successfully",
		"data":    m,
	})
}

// ListMemberships handles GET /admin/memberships
func (h *DealerHandler) ListMemberships(c *gin.Context) {
	status := dealer.MembershipStatus(c.Query("status"))

	memberships, err := h.dealerService.ListMemberships(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve membership requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Membership requests retrieved successfully",
		"data":    memberships,
	})
}

// AcceptMembership handles POST /admin/memberships/:id/accept
func (h *DealerHandler) AcceptMembership(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.dealerService.Accept(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to accept membership request")
		return
	}

	message := "Membership accepted, credentials emailed to the dealer"
	if !result.Emailed {
		message = "Membership accepted, credentials could not be emailed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    result,
	})
}

// RejectMembership handles DELETE /admin/memberships/:id
func (h *DealerHandler) RejectMembership(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.dealerService.Reject(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to reject membership request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Membership request rejected",
	})
}

// ListProducts handles GET /dealer/products and GET /admin/dealer-products
func (h *DealerHandler) ListProducts(c *gin.Context) {
	products, err := h.dealerService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve dealer products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dealer products retrieved successfully",
		"data":    products,
	})
}

// CreateProduct handles POST /admin/dealer-products (multipart)
func (h *DealerHandler) CreateProduct(c *gin.Context) {
	var req dealer.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Image = formFile(c, "image")

	p, err := h.dealerService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create dealer product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Dealer product created successfully",
		"data":    p,
	})
}

// UpdateProduct handles PATCH /admin/dealer-products/:id
func (h *DealerHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dealer.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.dealerService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update dealer product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dealer product updated successfully",
		"data":    p,
	})
}

// DeleteProduct handles DELETE /admin/dealer-products/:id
func (h *DealerHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.dealerService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to delete dealer product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dealer product deleted successfully",
	})
}

// ListDeals handles GET /dealer/deals and GET /admin/deals
func (h *DealerHandler) ListDeals(c *gin.Context) {
	deals, err := h.dealerService.ListDeals(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve deals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deals retrieved successfully",
		"data":    deals,
	})
}

// CreateDeal handles POST /admin/deals (multipart)
func (h *DealerHandler) CreateDeal(c *gin.Context) {
	var req dealer.DealRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Images = formFiles(c, "images", "images[]")

	d, err := h.dealerService.CreateDeal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create deal")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Deal created successfully",
		"data":    d,
	})
}

// UpdateDeal handles PATCH /admin/deals/:id
func (h *DealerHandler) UpdateDeal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dealer.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.dealerService.UpdateDeal(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update deal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deal updated successfully",
		"data":    d,
	})
}

// DeleteDeal handles DELETE /admin/deals/:id
func (h *DealerHandler) DeleteDeal(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.dealerService.DeleteDeal(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to delete deal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deal deleted successfully",
	})
}
