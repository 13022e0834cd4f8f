// internal/infrastructure/database/postgres/connection.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps the gorm connection
type DB struct {
	db *gorm.DB
}

// NewConnection opens the PostgreSQL connection pool
func NewConnection(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	level := gormlogger.Warn
	if cfg.App.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:         gormlogger.New(log, gormlogger.Config{SlowThreshold: 200 * time.Millisecond, LogLevel: level, IgnoreRecordNotFoundError: true}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("Database connection established")

	return &DB{db: db}, nil
}

// GetDB returns the gorm instance
func (d *DB) GetDB() *gorm.DB {
	return d.db
}

// Health pings the database
func (d *DB) Health() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
