// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no product matches
var ErrNotFound = errors.New("product not found")

// Repository persists products and the top-selling showcase
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Product, error)
	// List returns products in catalog order; an empty status means every status
	List(ctx context.Context, status Status) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)

	ListFeatured(ctx context.Context) ([]Featured, error)
	SaveFeatured(ctx context.Context, f *Featured) error
	DeleteFeatured(ctx context.Context, productID string) error
}

// GormRepository is the PostgreSQL Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm backed repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GormRepository) Save(ctx context.Context, p *Product) error {
	result := r.db.WithContext(ctx).Model(p).Select("*").Omit("id", "created_at").Updates(p)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	query := r.db.WithContext(ctx)
	if _, err := uuid.Parse(id); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", id)
	}
	if err := query.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

func (r *GormRepository) List(ctx context.Context, status Status) ([]Product, error) {
	var products []Product
	query := r.db.WithContext(ctx).Model(&Product{}).Order("created_at DESC, id ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

func (r *GormRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ?", StatusActive).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepository) ListFeatured(ctx context.Context) ([]Featured, error) {
	var featured []Featured
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("rank ASC, created_at ASC").
		Find(&featured).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve top-selling products: %w", err)
	}
	return featured, nil
}

func (r *GormRepository) SaveFeatured(ctx context.Context, f *Featured) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank"}),
	}).Create(f).Error
	if err != nil {
		return fmt.Errorf("failed to pin product: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteFeatured(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&Featured{})
	if result.Error != nil {
		return fmt.Errorf("failed to unpin product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
