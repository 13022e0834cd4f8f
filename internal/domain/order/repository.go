// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no order matches
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateKey is returned when an idempotency key is already taken
	ErrDuplicateKey = errors.New("idempotency key already used")
	// ErrStale is returned when the order changed between read and write
	ErrStale = errors.New("order was modified concurrently")
)

// ListRequest represents order list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Status   Status `form:"status"`
	Origin   Origin `form:"origin"`
	Search   string `form:"search"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// Repository persists orders
type Repository interface {
	// Create writes the order, its items and first history entry in one transaction
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	List(ctx context.Context, req *ListRequest) ([]Order, int64, error)
	// UpdateStatus moves order id from status from to entry.Status and records entry
	UpdateStatus(ctx context.Context, id uint, from Status, entry StatusHistory) error
	Delete(ctx context.Context, id uint) error
}

// GormRepository is the PostgreSQL Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm backed repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, o *Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("StatusHistory").Create(o).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		o.OrderNumber = o.GenerateOrderNumber()
		if err := tx.Model(o).Update("order_number", o.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		for i := range o.StatusHistory {
			o.StatusHistory[i].OrderID = o.ID
			if err := tx.Create(&o.StatusHistory[i]).Error; err != nil {
				return fmt.Errorf("failed to create status history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		o.ID = 0
		o.OrderNumber = ""
		return err
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	return r.findOne(ctx, "idempotency_key = ?", key)
}

func (r *GormRepository) findOne(ctx context.Context, query string, arg any) (*Order, error) {
	var o Order
	result := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where(query, arg).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &o, nil
}

func (r *GormRepository) List(ctx context.Context, req *ListRequest) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Origin != "" {
		query = query.Where("origin = ?", req.Origin)
	}
	if req.Search != "" {
		search := "%" + req.Search + "%"
		query = query.Where("order_number ILIKE ? OR buyer_name ILIKE ? OR buyer_phone ILIKE ?", search, search, search)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, total, nil
}

func (r *GormRepository) UpdateStatus(ctx context.Context, id uint, from Status, entry StatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", entry.Status)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStale
		}

		entry.OrderID = id
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Order{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
