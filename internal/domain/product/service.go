// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/upload"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service handles product business logic
type Service struct {
	repo    Repository
	uploads *upload.Service
	config  *config.Config
	log     *logrus.Logger
}

// NewService creates a new product service
func NewService(repo Repository, uploads *upload.Service, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		repo:    repo,
		uploads: uploads,
		config:  cfg,
		log:     log,
	}
}

// CreateRequest is the admin product form. Numbers arrive as text and are validated here.
type CreateRequest struct {
	Name            string `form:"name"`
	Category        string `form:"category"`
	Subcategory     string `form:"subcategory"`
	OldPrice        string `form:"oldPrice"`
	Discount        string `form:"discount"`
	Stock           string `form:"stock"`
	Description     string `form:"description"`
	Features        string `form:"features"`
	Specs           string `form:"specs"`
	Warranty        string `form:"warranty"`
	YoutubeURL      string `form:"youtubeURL"`
	MetaTitle       string `form:"metaTitle"`
	MetaDescription string `form:"metaDescription"`
	MetaKeywords    string `form:"metaKeywords"`

	Images []upload.File `form:"-"`
	Banner *upload.File  `form:"-"`
}

// UpdateRequest changes only the fields that are set
type UpdateRequest struct {
	Name            *string            `json:"name"`
	Category        *string            `json:"category"`
	Subcategory     *string            `json:"subcategory"`
	OldPrice        *decimal.Decimal   `json:"old_price"`
	Discount        *decimal.Decimal   `json:"discount"`
	RemoveDiscount  bool               `json:"remove_discount"`
	Stock           *int               `json:"stock"`
	Description     *string            `json:"description"`
	Features        *[]string          `json:"features"`
	Specs           *map[string]string `json:"specs"`
	Warranty        *string            `json:"warranty"`
	YoutubeURL      *string            `json:"youtube_url"`
	MetaTitle       *string            `json:"meta_title"`
	MetaDescription *string            `json:"meta_description"`
	MetaKeywords    *[]string          `json:"meta_keywords"`
}

// ImportFailure names a legacy record that could not be imported
type ImportFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportResult summarizes a legacy import
type ImportResult struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

// Catalog returns a page of active products
func (s *Service) Catalog(ctx context.Context, f Filter) (*Page, error) {
	products, err := s.repo.List(ctx, StatusActive)
	if err != nil {
		return nil, err
	}
	if f.PageSize < 1 {
		f.PageSize = s.config.Store.PageSize
	}
	page := Apply(products, f)
	return &page, nil
}

// AdminList returns a page of products of any status, narrowed by r
func (s *Service) AdminList(ctx context.Context, status Status, f Filter, r Refinement) (*Page, error) {
	if status != "" && !status.Valid() {
		return nil, apperror.Validation("unknown product status", "status")
	}
	products, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if f.PageSize < 1 {
		f.PageSize = s.config.Store.PageSize
	}
	page := Apply(Refine(products, r), f)
	return &page, nil
}

// Categories lists the categories that have active products
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Get returns a product of any status
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// GetActive returns a product visible to shoppers. Inactive products are reported as not found.
func (s *Service) GetActive(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create validates the form, uploads the images and stores the product. Uploaded images are
// removed again when the record cannot be written.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Product, error) {
	p, err := s.fromForm(req)
	if err != nil {
		return nil, err
	}

	images, err := s.uploads.SaveAll(ctx, upload.FolderProductImages, req.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product images: %w", err)
	}
	p.Images = images

	if req.Banner != nil {
		banner, err := s.uploads.Save(ctx, upload.FolderBannerImages, *req.Banner)
		if err != nil {
			s.uploads.Remove(ctx, images...)
			return nil, fmt.Errorf("failed to upload banner image: %w", err)
		}
		p.BannerImage = banner
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.uploads.Remove(ctx, append(images, p.BannerImage)...)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"category":   p.Category,
		"images":     len(p.Images),
	}).Info("product created")

	return p, nil
}

// Update applies a partial update and reprices the product
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty", "name")
		}
		p.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" || category == CategoryAll {
			return nil, apperror.Validation("invalid category", "category")
		}
		p.Category = category
	}
	if req.Subcategory != nil {
		p.Subcategory = strings.TrimSpace(*req.Subcategory)
	}
	if req.OldPrice != nil {
		if req.OldPrice.IsNegative() {
			return nil, apperror.Validation("price cannot be negative", "old_price")
		}
		p.OldPrice = *req.OldPrice
	}
	if req.RemoveDiscount {
		p.Discount = decimal.NullDecimal{}
	} else if req.Discount != nil {
		p.Discount = decimal.NewNullDecimal(*req.Discount)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperror.Validation("stock cannot be negative", "stock")
		}
		p.Stock = *req.Stock
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Features != nil {
		p.Features = splitTrim(strings.Join(*req.Features, "\n"), "\n")
	}
	if req.Specs != nil {
		p.Specs = Specs(*req.Specs)
	}
	if req.Warranty != nil {
		p.Warranty = *req.Warranty
	}
	if req.YoutubeURL != nil {
		p.YoutubeURL = strings.TrimSpace(*req.YoutubeURL)
	}
	if req.MetaTitle != nil {
		p.MetaTitle = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		p.MetaDescription = *req.MetaDescription
	}
	if req.MetaKeywords != nil {
		p.MetaKeywords = splitTrim(strings.Join(*req.MetaKeywords, ","), ",")
	}

	if err := p.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price product: %w", err)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus activates or deactivates a product
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Product, error) {
	if !status.Valid() {
		return nil, apperror.Validation("unknown product status", "status")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	p.Status = status
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"product_id": p.ID, "status": status}).Info("product status changed")
	return p, nil
}

// Delete removes a product for good together with its images
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.uploads.Remove(ctx, append([]string(p.Images), p.BannerImage)...)
	return nil
}

// Import stores legacy records through the canonical schema. Bad records are reported and skipped.
func (s *Service) Import(ctx context.Context, records []LegacyRecord) (*ImportResult, error) {
	result := &ImportResult{Failed: []ImportFailure{}}

	for i, rec := range records {
		p, err := FromLegacy(rec)
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Index: i, Error: err.Error()})
			continue
		}
		p.ID = uuid.NewString()
		p.Slug = s.generateSlug(p.Name, p.ID)

		if err := s.repo.Create(ctx, &p); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, ImportFailure{Index: i, Error: err.Error()})
			continue
		}
		result.Imported++
	}

	s.log.WithFields(logrus.Fields{
		"imported": result.Imported,
		"failed":   len(result.Failed),
	}).Info("legacy products imported")

	return result, nil
}

// TopSelling returns the pinned active products in rank order
func (s *Service) TopSelling(ctx context.Context) ([]Product, error) {
	featured, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(featured))
	for _, f := range featured {
		if f.Product.IsActive() {
			products = append(products, f.Product)
		}
	}
	return products, nil
}

// Pin adds a product to the top-selling showcase, or moves it to rank
func (s *Service) Pin(ctx context.Context, productID string, rank int) (*Featured, error) {
	if rank < 1 {
		return nil, apperror.Validation("rank must be at least 1", "rank")
	}
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	f := &Featured{ProductID: p.ID, Rank: rank, Product: *p}
	if err := s.repo.SaveFeatured(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Unpin removes a product from the showcase
func (s *Service) Unpin(ctx context.Context, productID string) error {
	return s.repo.DeleteFeatured(ctx, productID)
}

func (s *Service) fromForm(req *CreateRequest) (*Product, error) {
	if err := apperror.MissingFields(map[string]string{
		"name":     req.Name,
		"category": req.Category,
		"oldPrice": req.OldPrice,
		"stock":    req.Stock,
	}, "name", "category", "oldPrice", "stock"); err != nil {
		return nil, err
	}
	if len(req.Images) == 0 {
		return nil, apperror.Validation("at least one product image is required", "productImages")
	}

	base := pricing.ParseAmount(req.OldPrice)
	if !base.Valid || base.Decimal.IsNegative() {
		return nil, apperror.Validation("price must be a non-negative number", "oldPrice")
	}

	var discount decimal.NullDecimal
	if strings.TrimSpace(req.Discount) != "" {
		discount = pricing.ParseAmount(req.Discount)
		if !discount.Valid {
			return nil, apperror.Validation("discount must be a number", "discount")
		}
	}

	stock, err := strconv.Atoi(strings.TrimSpace(req.Stock))
	if err != nil || stock < 0 {
		return nil, apperror.Validation("stock must be a whole number", "stock")
	}

	category := strings.TrimSpace(req.Category)
	if category == CategoryAll {
		return nil, apperror.Validation("invalid category", "category")
	}

	specs, err := ParseSpecs(req.Specs)
	if err != nil {
		return nil, err
	}

	p := &Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Category:        category,
		Subcategory:     strings.TrimSpace(req.Subcategory),
		OldPrice:        base.Decimal,
		Discount:        discount,
		Stock:           stock,
		Description:     req.Description,
		Features:        SplitLines(req.Features),
		Specs:           specs,
		Warranty:        strings.TrimSpace(req.Warranty),
		YoutubeURL:      strings.TrimSpace(req.YoutubeURL),
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    SplitKeywords(req.MetaKeywords),
		Status:          StatusActive,
	}
	p.Slug = s.generateSlug(p.Name, p.ID)

	if err := p.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price product: %w", err)
	}
	return p, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug generates URL-friendly slug from name
func (s *Service) generateSlug(name, id string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "product"
	}
	return slug + "-" + strings.SplitN(id, "-", 2)[0]
}

// IsNotFound reports whether err means the product does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
