// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/sirupsen/logrus"
)

// ProductService is the catalog used by the product endpoints
type ProductService interface {
	Catalog(ctx context.Context, f product.Filter) (*product.Page, error)
	AdminList(ctx context.Context, status product.Status, f product.Filter, r product.Refinement) (*product.Page, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	GetActive(ctx context.Context, id string) (*product.Product, error)
	Create(ctx context.Context, req *product.CreateRequest) (*product.Product, error)
	Update(ctx context.Context, id string, req *product.UpdateRequest) (*product.Product, error)
	SetStatus(ctx context.Context, id string, status product.Status) (*product.Product, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, records []product.LegacyRecord) (*product.ImportResult, error)
	TopSelling(ctx context.Context) ([]product.Product, error)
	Pin(ctx context.Context, productID string, rank int) (*product.Featured, error)
	Unpin(ctx context.Context, productID string) error
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService ProductService
	log            *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService ProductService, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		log:            log,
	}
}

// ListProducts handles GET /products. The client echoes back the signature it was given; when the
// criteria changed since then the page is reset to 1.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var f product.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	f = f.ResetPage(c.Query("signature"))

	page, err := h.productService.Catalog(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    page,
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.productService.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// GetCategories handles GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// GetTopSelling handles GET /products/top-selling
func (h *ProductHandler) GetTopSelling(c *gin.Context) {
	products, err := h.productService.TopSelling(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve top selling products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Top selling products retrieved successfully",
		"data":    products,
	})
}

// AdminListProducts handles GET /admin/products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	var f product.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	f = f.ResetPage(c.Query("signature"))

	r := product.Refinement{
		MinPrice:    pricing.ParseAmount(c.Query("min_price")),
		MaxPrice:    pricing.ParseAmount(c.Query("max_price")),
		MinDiscount: pricing.ParseAmount(c.Query("min_discount")),
		MaxDiscount: pricing.ParseAmount(c.Query("max_discount")),
	}

	page, err := h.productService.AdminList(c.Request.Context(), product.Status(c.Query("status")), f, r)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    page,
	})
}

// AdminGetProduct handles GET /admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	p, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// CreateProduct handles POST /admin/products (multipart)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Images = formFiles(c, "productImages", "productImages[]")
	req.Banner = formFile(c, "bannerImage")

	p, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    p,
	})
}

// UpdateProduct handles PATCH /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.productService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    p,
	})
}

// SetProductStatus handles PATCH /admin/products/:id/status
func (h *ProductHandler) SetProductStatus(c *gin.Context) {
	var req struct {
		Status product.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.productService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err, "Failed to update product status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product status updated successfully",
		"data":    p,
	})
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// ImportProducts handles POST /admin/products/import with a JSON array of legacy records
func (h *ProductHandler) ImportProducts(c *gin.Context) {
	var records []product.LegacyRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.productService.Import(c.Request.Context(), records)
	if err != nil {
		respondError(c, h.log, err, "Failed to import products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products imported",
		"data":    result,
	})
}

// PinTopSelling handles PUT /admin/top-selling/:id
func (h *ProductHandler) PinTopSelling(c *gin.Context) {
	var req struct {
		Rank int `json:"rank" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	f, err := h.productService.Pin(c.Request.Context(), c.Param("id"), req.Rank)
	if err != nil {
		respondError(c, h.log, err, "Failed to pin product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product added to top selling",
		"data":    f,
	})
}

// UnpinTopSelling handles DELETE /admin/top-selling/:id
func (h *ProductHandler) UnpinTopSelling(c *gin.Context) {
	if err := h.productService.Unpin(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to unpin product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed from top selling",
	})
}
