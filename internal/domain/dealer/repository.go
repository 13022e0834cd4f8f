// internal/domain/dealer/repository.go
package dealer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrMembershipNotFound = errors.New("membership request not found")
	ErrDealerNotFound     = errors.New("dealer not found")
	ErrProductNotFound    = errors.New("dealer product not found")
	ErrDealNotFound       = errors.New("deal not found")
	ErrUsernameTaken      = errors.New("username already taken")
)

// Repository persists memberships, dealers and the dealer catalog
type Repository interface {
	CreateMembership(ctx context.Context, m *Membership) error
	FindMembership(ctx context.Context, id uint) (*Membership, error)
	// ListMemberships returns newest first; an empty status means every status
	ListMemberships(ctx context.Context, status MembershipStatus) ([]Membership, error)
	DeleteMembership(ctx context.Context, id uint) error
	// Accept marks m accepted and creates d in one transaction
	Accept(ctx context.Context, m *Membership, d *Dealer) error

	FindDealerByUsername(ctx context.Context, username string) (*Dealer, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error

	CreateProduct(ctx context.Context, p *Product) error
	SaveProduct(ctx context.Context, p *Product) error
	FindProduct(ctx context.Context, id uint) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	CreateDeal(ctx context.Context, d *Deal) error
	SaveDeal(ctx context.Context, d *Deal) error
	FindDeal(ctx context.Context, id uint) (*Deal, error)
	ListDeals(ctx context.Context) ([]Deal, error)
	DeleteDeal(ctx context.Context, id uint) error
}

// GormRepository is the PostgreSQL Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm backed repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateMembership(ctx context.Context, m *Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create membership request: %w", err)
	}
	return nil
}

func (r *GormRepository) FindMembership(ctx context.Context, id uint) (*Membership, error) {
	var m Membership
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to retrieve membership request: %w", err)
	}
	return &m, nil
}

func (r *GormRepository) ListMemberships(ctx context.Context, status MembershipStatus) ([]Membership, error) {
	var memberships []Membership
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve membership requests: %w", err)
	}
	return memberships, nil
}

func (r *GormRepository) DeleteMembership(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Membership{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete membership request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (r *GormRepository) Accept(ctx context.Context, m *Membership, d *Dealer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Membership{}).
			Where("id = ? AND status = ?", m.ID, MembershipPending).
			Update("status", MembershipAccepted)
		if result.Error != nil {
			return fmt.Errorf("failed to accept membership request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyDecided
		}

		if err := tx.Create(d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create dealer: %w", err)
		}

		m.Status = MembershipAccepted
		return nil
	})
}

func (r *GormRepository) FindDealerByUsername(ctx context.Context, username string) (*Dealer, error) {
	var d Dealer
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealerNotFound
		}
		return nil, fmt.Errorf("failed to retrieve dealer: %w", err)
	}
	return &d, nil
}

func (r *GormRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Dealer{}).Where("id = ?", id).Update("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to record dealer login: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create dealer product: %w", err)
	}
	return nil
}

func (r *GormRepository) SaveProduct(ctx context.Context, p *Product) error {
	result := r.db.WithContext(ctx).Model(p).Select("*").Omit("id", "created_at").Updates(p)
	if result.Error != nil {
		return fmt.Errorf("failed to update dealer product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *GormRepository) FindProduct(ctx context.Context, id uint) (*Product, error) {
	var p Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve dealer product: %w", err)
	}
	return &p, nil
}

func (r *GormRepository) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve dealer products: %w", err)
	}
	return products, nil
}

func (r *GormRepository) DeleteProduct(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete dealer product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *GormRepository) CreateDeal(ctx context.Context, d *Deal) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

func (r *GormRepository) SaveDeal(ctx context.Context, d *Deal) error {
	result := r.db.WithContext(ctx).Model(d).Select("*").Omit("id", "created_at").Updates(d)
	if result.Error != nil {
		return fmt.Errorf("failed to update deal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDealNotFound
	}
	return nil
}

func (r *GormRepository) FindDeal(ctx context.Context, id uint) (*Deal, error) {
	var d Deal
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to retrieve deal: %w", err)
	}
	return &d, nil
}

func (r *GormRepository) ListDeals(ctx context.Context) ([]Deal, error) {
	var deals []Deal
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&deals).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve deals: %w", err)
	}
	return deals, nil
}

func (r *GormRepository) DeleteDeal(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Deal{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete deal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDealNotFound
	}
	return nil
}
