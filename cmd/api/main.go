// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/checkout"
	"github.com/orient-appliances/storefront/internal/domain/dealer"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/domain/upload"
	"github.com/orient-appliances/storefront/internal/infrastructure/database/postgres"
	"github.com/orient-appliances/storefront/internal/infrastructure/database/redis"
	"github.com/orient-appliances/storefront/internal/infrastructure/messaging"
	"github.com/orient-appliances/storefront/internal/infrastructure/storage"
	"github.com/orient-appliances/storefront/internal/interfaces/http"
	"github.com/orient-appliances/storefront/internal/interfaces/http/handlers"
	"github.com/orient-appliances/storefront/internal/interfaces/http/middleware"
	"github.com/orient-appliances/storefront/internal/interfaces/http/routes"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/orient-appliances/storefront/internal/pkg/email"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/orient-appliances/storefront/internal/pkg/pdf"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	ctx := context.Background()

	blobs, uploadsDir := newBlobStore(ctx, cfg, log)
	uploads := upload.NewService(blobs, cfg, log)

	productService := product.NewService(product.NewRepository(db.GetDB()), uploads, cfg, log)

	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(ctx, productService); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	mailer, err := email.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up email")
	}

	producer, err := messaging.NewKafkaProducer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up order events")
	}
	var publisher order.Publisher
	if producer != nil {
		publisher = producer
		defer producer.Close()
	}

	orderService := order.NewService(order.NewRepository(db.GetDB()), productService, publisher, mailer, cfg, log)

	checkoutService := checkout.NewService(
		orderService,
		productService,
		redis.NewLocker(redisClient.GetClient(), "lock:"),
		cfg,
		log,
	)

	passwords := auth.NewPasswordManager(cfg)
	dealerService := dealer.NewService(dealer.NewRepository(db.GetDB()), uploads, passwords, mailer, cfg, log)

	jwtManager := auth.NewJWTManager(cfg)
	sessions := redis.NewSessionStore(redisClient.GetClient())
	cartStorage := redis.NewCartStorage(redisClient.GetClient(), cfg.Store.CartTTL)

	h := &routes.Handlers{
		Cart:     handlers.NewCartHandler(cartStorage, productService, cfg, log),
		Checkout: handlers.NewCheckoutHandler(checkoutService, cartStorage, cfg, log),
		Product:  handlers.NewProductHandler(productService, log),
		Order:    handlers.NewOrderHandler(orderService, pdf.NewService(cfg), log),
		Dealer:   handlers.NewDealerHandler(dealerService, log),
		Auth:     handlers.NewAuthHandler(jwtManager, passwords, sessions, dealerService, cfg, log),

		RequireAdmin:  middleware.RequireRole(jwtManager, sessions, auth.RoleAdmin, log),
		RequireDealer: middleware.RequireRole(jwtManager, sessions, auth.RoleDealer, log),
	}

	server := http.NewServer(cfg, log, h, redisClient.GetClient(), map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	}, uploadsDir)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

// newBlobStore picks the image store. The second result is the directory to serve under /uploads,
// empty when images live in S3.
func newBlobStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (upload.BlobStore, string) {
	if cfg.Storage.Provider == "s3" {
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to set up S3")
		}
		log.WithField("bucket", cfg.Storage.S3Bucket).Info("Storing uploads in S3")
		return storage.NewS3Store(client, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.PublicBaseURL), ""
	}

	local := storage.NewLocalStore(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
	log.WithField("path", local.Root()).Info("Storing uploads on local disk")
	return local, local.Root()
}
