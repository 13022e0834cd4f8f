// internal/domain/dealer/service.go
package dealer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/upload"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyDecided is returned when accepting or rejecting a request that is no longer pending
	ErrAlreadyDecided = errors.New("membership request already decided")
	// ErrInvalidCredentials is returned for any failed dealer sign-in
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Passwords generates, hashes and checks dealer passwords
type Passwords interface {
	GenerateTemporaryPassword() (string, error)
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) error
}

// CredentialSender delivers sign-in details to a newly accepted dealer
type CredentialSender interface {
	SendDealerCredentials(ctx context.Context, to, name, username, password string) error
}

// Service handles membership requests, dealer sign-in and the dealer catalog
type Service struct {
	repo      Repository
	uploads   *upload.Service
	passwords Passwords
	sender    CredentialSender
	config    *config.Config
	log       *logrus.Logger
	now       func() time.Time
}

// NewService creates a new dealer service
func NewService(repo Repository, uploads *upload.Service, passwords Passwords, sender CredentialSender, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		repo:      repo,
		uploads:   uploads,
		passwords: passwords,
		sender:    sender,
		config:    cfg,
		log:       log,
		now:       time.Now,
	}
}

// MembershipRequest is the public membership form
type MembershipRequest struct {
	DealerName string `form:"dealerName"`
	Phone      string `form:"phone"`
	Email      string `form:"email"`

	ShopPic  *upload.File `form:"-"`
	ShopCard *upload.File `form:"-"`
}

// AcceptResult reports the credentials issued for an accepted membership.
// TemporaryPassword is only filled when the credentials could not be emailed.
type AcceptResult struct {
	Dealer            *Dealer `json:"dealer"`
	Username          string  `json:"username"`
	Emailed           bool    `json:"emailed"`
	TemporaryPassword string  `json:"temporary_password,omitempty"`
}

// ProductRequest is the admin dealer product form
type ProductRequest struct {
	ProductName string `form:"productName"`
	NormalPrice string `form:"normalPrice"`
	Discount    string `form:"discount"`
	MinOrder    string `form:"minOrder"`

	Image *upload.File `form:"-"`
}

// UpdateProductRequest changes only the fields that are set
type UpdateProductRequest struct {
	ProductName    *string          `json:"product_name"`
	NormalPrice    *decimal.Decimal `json:"normal_price"`
	Discount       *decimal.Decimal `json:"discount"`
	RemoveDiscount bool             `json:"remove_discount"`
	MinOrder       *int             `json:"min_order"`
}

// DealRequest is the admin deal form. Products is a comma separated list.
type DealRequest struct {
	DealName   string `form:"dealName"`
	Products   string `form:"products"`
	TotalPrice string `form:"totalPrice"`
	Discount   string `form:"discount"`
	MinOrder   string `form:"minOrder"`

	Images []upload.File `form:"-"`
}

// UpdateDealRequest changes only the fields that are set
type UpdateDealRequest struct {
	DealName       *string          `json:"deal_name"`
	Products       *[]string        `json:"products"`
	TotalPrice     *decimal.Decimal `json:"total_price"`
	Discount       *decimal.Decimal `json:"discount"`
	RemoveDiscount bool             `json:"remove_discount"`
	MinOrder       *int             `json:"min_order"`
}

// SubmitMembership stores a pending membership request with its shop pictures
func (s *Service) SubmitMembership(ctx context.Context, req *MembershipRequest) (*Membership, error) {
	if err := apperror.MissingFields(map[string]string{
		"dealerName": req.DealerName,
		"phone":      req.Phone,
		"email":      req.Email,
	}, "dealerName", "phone", "email"); err != nil {
		return nil, err
	}
	if req.ShopPic == nil || req.ShopCard == nil {
		var missing []string
		if req.ShopPic == nil {
			missing = append(missing, "shopPic")
		}
		if req.ShopCard == nil {
			missing = append(missing, "shopCard")
		}
		return nil, apperror.Validation("missing required fields", missing...)
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("invalid email address", "email")
	}

	urls, err := s.uploads.SaveAll(ctx, upload.FolderMembership, []upload.File{*req.ShopPic, *req.ShopCard})
	if err != nil {
		return nil, fmt.Errorf("failed to upload shop pictures: %w", err)
	}

	m := &Membership{
		DealerName: strings.TrimSpace(req.DealerName),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      email,
		ShopPic:    urls[0],
		ShopCard:   urls[1],
		Status:     MembershipPending,
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		s.uploads.Remove(ctx, urls...)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"membership_id": m.ID, "dealer": m.DealerName}).Info("membership request submitted")
	return m, nil
}

// ListMemberships returns membership requests, optionally narrowed to one status
func (s *Service) ListMemberships(ctx context.Context, status MembershipStatus) ([]Membership, error) {
	if status != "" && !status.Valid() {
		return nil, apperror.Validation("unknown membership status", "status")
	}
	return s.repo.ListMemberships(ctx, status)
}

// Accept turns a pending request into a dealer account and emails the sign-in details
func (s *Service) Accept(ctx context.Context, id uint) (*AcceptResult, error) {
	m, err := s.repo.FindMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsPending() {
		return nil, ErrAlreadyDecided
	}

	password, err := s.passwords.GenerateTemporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var d *Dealer
	for attempt := 0; ; attempt++ {
		username, err := auth.GenerateUsername(m.DealerName)
		if err != nil {
			return nil, fmt.Errorf("failed to generate username: %w", err)
		}
		d = &Dealer{
			MembershipID: m.ID,
			Name:         m.DealerName,
			Email:        m.Email,
			Phone:        m.Phone,
			Username:     username,
			PasswordHash: hash,
			IsActive:     true,
		}
		err = s.repo.Accept(ctx, m, d)
		if errors.Is(err, ErrUsernameTaken) && attempt < 3 {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	result := &AcceptResult{Dealer: d, Username: d.Username}
	if err := s.sender.SendDealerCredentials(ctx, d.Email, d.Name, d.Username, password); err != nil {
		s.log.WithError(err).WithField("dealer_id", d.ID).Warn("failed to email dealer credentials")
		result.TemporaryPassword = password
	} else {
		result.Emailed = true
	}

	s.log.WithFields(logrus.Fields{
		"membership_id": m.ID,
		"dealer_id":     d.ID,
		"emailed":       result.Emailed,
	}).Info("membership accepted")

	return result, nil
}

// Reject deletes a pending request and its pictures
func (s *Service) Reject(ctx context.Context, id uint) error {
	m, err := s.repo.FindMembership(ctx, id)
	if err != nil {
		return err
	}
	if !m.IsPending() {
		return ErrAlreadyDecided
	}
	if err := s.repo.DeleteMembership(ctx, id); err != nil {
		return err
	}
	s.uploads.Remove(ctx, m.ShopPic, m.ShopCard)

	s.log.WithField("membership_id", id).Info("membership rejected")
	return nil
}

// Authenticate checks dealer credentials. Unknown users and wrong passwords look the same.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Dealer, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.MissingFields(map[string]string{
			"username": username,
			"password": password,
		}, "username", "password")
	}

	d, err := s.repo.FindDealerByUsername(ctx, username)
	if errors.Is(err, ErrDealerNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.passwords.VerifyPassword(password, d.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, d.ID, now); err != nil {
		s.log.WithError(err).WithField("dealer_id", d.ID).Warn("failed to record dealer login")
	} else {
		d.LastLoginAt = &now
	}
	return d, nil
}

// ListProducts returns the dealer catalog
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// CreateProduct validates the form, uploads the image and stores the product
func (s *Service) CreateProduct(ctx context.Context, req *ProductRequest) (*Product, error) {
	if err := apperror.MissingFields(map[string]string{
		"productName": req.ProductName,
		"normalPrice": req.NormalPrice,
	}, "productName", "normalPrice"); err != nil {
		return nil, err
	}
	if req.Image == nil {
		return nil, apperror.Validation("missing required fields", "image")
	}

	price, err := parsePrice(req.NormalPrice, "normalPrice")
	if err != nil {
		return nil, err
	}
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	minOrder, err := parseMinOrder(req.MinOrder)
	if err != nil {
		return nil, err
	}

	p := &Product{
		ProductName: strings.TrimSpace(req.ProductName),
		NormalPrice: price,
		Discount:    discount,
		MinOrder:    minOrder,
	}
	if err := p.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price dealer product: %w", err)
	}

	image, err := s.uploads.Save(ctx, upload.FolderDealImages, *req.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}
	p.Image = image

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.uploads.Remove(ctx, image)
		return nil, err
	}
	return p, nil
}

// UpdateProduct applies a partial update and reprices the product
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProductName != nil {
		name := strings.TrimSpace(*req.ProductName)
		if name == "" {
			return nil, apperror.Validation("product name cannot be empty", "product_name")
		}
		p.ProductName = name
	}
	if req.NormalPrice != nil {
		if req.NormalPrice.IsNegative() {
			return nil, apperror.Validation("price cannot be negative", "normal_price")
		}
		p.NormalPrice = *req.NormalPrice
	}
	if req.RemoveDiscount {
		p.Discount = decimal.NullDecimal{}
	} else if req.Discount != nil {
		p.Discount = decimal.NewNullDecimal(*req.Discount)
	}
	if req.MinOrder != nil {
		if *req.MinOrder < 1 {
			return nil, apperror.Validation("minimum order must be at least 1", "min_order")
		}
		p.MinOrder = *req.MinOrder
	}

	if err := p.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price dealer product: %w", err)
	}
	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a dealer product and its image
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.uploads.Remove(ctx, p.Image)
	return nil
}

// ListDeals returns the dealer deals
func (s *Service) ListDeals(ctx context.Context) ([]Deal, error) {
	return s.repo.ListDeals(ctx)
}

// CreateDeal validates the form, uploads the images and stores the deal
func (s *Service) CreateDeal(ctx context.Context, req *DealRequest) (*Deal, error) {
	if err := apperror.MissingFields(map[string]string{
		"dealName":   req.DealName,
		"products":   req.Products,
		"totalPrice": req.TotalPrice,
	}, "dealName", "products", "totalPrice"); err != nil {
		return nil, err
	}

	products := splitList(req.Products)
	if len(products) == 0 {
		return nil, apperror.Validation("a deal needs at least one product", "products")
	}
	total, err := parsePrice(req.TotalPrice, "totalPrice")
	if err != nil {
		return nil, err
	}
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	minOrder, err := parseMinOrder(req.MinOrder)
	if err != nil {
		return nil, err
	}

	d := &Deal{
		DealName:   strings.TrimSpace(req.DealName),
		Products:   products,
		TotalPrice: total,
		Discount:   discount,
		MinOrder:   minOrder,
	}
	if err := d.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price deal: %w", err)
	}

	images, err := s.uploads.SaveAll(ctx, upload.FolderDealImages, req.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to upload deal images: %w", err)
	}
	d.Images = images

	if err := s.repo.CreateDeal(ctx, d); err != nil {
		s.uploads.Remove(ctx, images...)
		return nil, err
	}
	return d, nil
}

// UpdateDeal applies a partial update and reprices the deal
func (s *Service) UpdateDeal(ctx context.Context, id uint, req *UpdateDealRequest) (*Deal, error) {
	d, err := s.repo.FindDeal(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DealName != nil {
		name := strings.TrimSpace(*req.DealName)
		if name == "" {
			return nil, apperror.Validation("deal name cannot be empty", "deal_name")
		}
		d.DealName = name
	}
	if req.Products != nil {
		products := splitList(strings.Join(*req.Products, ","))
		if len(products) == 0 {
			return nil, apperror.Validation("a deal needs at least one product", "products")
		}
		d.Products = products
	}
	if req.TotalPrice != nil {
		if req.TotalPrice.IsNegative() {
			return nil, apperror.Validation("price cannot be negative", "total_price")
		}
		d.TotalPrice = *req.TotalPrice
	}
	if req.RemoveDiscount {
		d.Discount = decimal.NullDecimal{}
	} else if req.Discount != nil {
		d.Discount = decimal.NewNullDecimal(*req.Discount)
	}
	if req.MinOrder != nil {
		if *req.MinOrder < 1 {
			return nil, apperror.Validation("minimum order must be at least 1", "min_order")
		}
		d.MinOrder = *req.MinOrder
	}

	if err := d.Reprice(); err != nil {
		return nil, fmt.Errorf("failed to price deal: %w", err)
	}
	if err := s.repo.SaveDeal(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDeal removes a deal and its images
func (s *Service) DeleteDeal(ctx context.Context, id uint) error {
	d, err := s.repo.FindDeal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDeal(ctx, id); err != nil {
		return err
	}
	s.uploads.Remove(ctx, d.Images...)
	return nil
}

// IsNotFound reports whether err is one of the package's not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMembershipNotFound) ||
		errors.Is(err, ErrDealerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrDealNotFound)
}

func parsePrice(raw, field string) (decimal.Decimal, error) {
	amount := pricing.ParseAmount(raw)
	if !amount.Valid || amount.Decimal.IsNegative() {
		return decimal.Zero, apperror.Validation("price must be a non-negative number", field)
	}
	return amount.Decimal, nil
}

func parseDiscount(raw string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	discount := pricing.ParseAmount(raw)
	if !discount.Valid {
		return decimal.NullDecimal{}, apperror.Validation("discount must be a number", "discount")
	}
	return discount, nil
}

func parseMinOrder(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation("minimum order must be a whole number of at least 1", "minOrder")
	}
	return n, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
