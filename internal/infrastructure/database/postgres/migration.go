// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"

	"github.com/orient-appliances/storefront/internal/domain/dealer"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	// dependency order
	models := []interface{}{
		&product.Product{},
		&product.Featured{},

		&order.Order{},
		&order.Item{},
		&order.StatusHistory{},

		&dealer.Membership{},
		&dealer.Dealer{},
		&dealer.Product{},
		&dealer.Deal{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates composite indexes the struct tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_status_created ON products(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category, status)",

		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_origin_created ON orders(origin, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_membership_requests_status_created ON membership_requests(status, created_at DESC)",
	}

	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("Failed to create index")
			failCount++
		}
	}

	if failCount > 0 {
		return fmt.Errorf("%d of %d indexes could not be created", failCount, len(indexes))
	}
	m.log.WithField("count", len(indexes)).Info("Database indexes ensured")
	return nil
}

// SeedInitialData loads demo catalog records through the legacy adapter when the catalog is empty
func (m *Migration) SeedInitialData(ctx context.Context, products *product.Service) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&product.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		m.log.WithField("products", count).Info("Catalog already populated, skipping seed")
		return nil
	}

	result, err := products.Import(ctx, seedProducts)
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("failed to seed %d products: %s", len(result.Failed), result.Failed[0].Error)
	}

	m.log.WithField("products", result.Imported).Info("Initial data seeded")
	return nil
}

var seedProducts = []product.LegacyRecord{
	{
		"productName":   "Ceiling Fan Deluxe 56\"",
		"category":      "Fans",
		"oldPrice":      "14500",
		"discount":      "12",
		"stock":         40,
		"features":      "Copper motor\n5 speed settings\nEnergy saver",
		"specs":         map[string]any{"Sweep": "56 in", "Power": "80 W"},
		"productImages": []any{"/uploads/productImages/demo-fan.jpg"},
	},
	{
		"name":     "Inverter Split AC 1.5 Ton",
		"category": "Air Conditioners",
		"price":    "185000",
		"discount": "7.5",
		"stock":    12,
		"features": "DC inverter\nWi-Fi control",
		"specs":    `{"Capacity":"1.5 Ton","Refrigerant":"R410A"}`,
		"image":    "/uploads/productImages/demo-ac.jpg",
	},
	{
		"productName":  "Water Dispenser 3 Tap",
		"category":     "Water Dispensers",
		"oldPrice":     52000,
		"stock":        25,
		"productImage": "/uploads/productImages/demo-dispenser.jpg",
		"metaKeywords": "water dispenser, cooler",
	},
}
