// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the storefront
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Security SecurityConfig
	Storage  StorageConfig
	Email    EmailConfig
	Kafka    KafkaConfig
	Upload   UploadConfig
	Logging  LoggingConfig
	Store    StoreConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name           string
	Version        string
	Environment    string
	Debug          bool
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string
	CompanyWebsite string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxRequestBytes int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// JWTConfig contains token signing configuration
type JWTConfig struct {
	Secret           string
	AdminSessionTTL  time.Duration
	DealerSessionTTL time.Duration
}

// AdminConfig holds the back office credentials. The password is stored as a bcrypt hash.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// StorageConfig contains blob storage configuration
type StorageConfig struct {
	Provider      string
	LocalPath     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
}

// EmailConfig contains email delivery configuration
type EmailConfig struct {
	Provider  string
	APIKey    string
	FromEmail string
	FromName  string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	NotifyTo  []string
}

// KafkaConfig contains order event publishing configuration. Empty brokers disables publishing.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// UploadConfig contains file upload configuration
type UploadConfig struct {
	MaxSize           int64
	AllowedExtensions []string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// StoreConfig holds storefront business settings
type StoreConfig struct {
	Currency       string        `envconfig:"CURRENCY" default:"PKR"`
	ShippingCharge string        `envconfig:"SHIPPING_CHARGE" default:"200"`
	PageSize       int           `envconfig:"PAGE_SIZE" default:"12"`
	RedirectDelay  time.Duration `envconfig:"REDIRECT_DELAY" default:"2s"`
	RedirectTo     string        `envconfig:"REDIRECT_TO" default:"/"`
	CartTTL        time.Duration `envconfig:"CART_TTL" default:"168h"`
	CheckoutLock   time.Duration `envconfig:"CHECKOUT_LOCK" default:"30s"`
}

// Shipping returns the flat shipping charge as a decimal
func (s StoreConfig) Shipping() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s.ShippingCharge))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Orient Storefront"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			Environment:    getEnv("APP_ENV", "development"),
			Debug:          getEnvAsBool("APP_DEBUG", true),
			CompanyName:    getEnv("COMPANY_NAME", "Orient Appliances"),
			CompanyAddress: getEnv("COMPANY_ADDRESS", ""),
			CompanyPhone:   getEnv("COMPANY_PHONE", ""),
			CompanyEmail:   getEnv("COMPANY_EMAIL", ""),
			CompanyWebsite: getEnv("COMPANY_WEBSITE", ""),
		},
		Server: ServerConfig{
			Port:            getEnv("APP_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxRequestBytes: getEnvAsInt64("SERVER_MAX_REQUEST_BYTES", 32<<20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront"),
			User:         getEnv("DB_USER", "storefront"),
			Password:     getEnv("DB_PASSWORD", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", ""),
			AdminSessionTTL:  getEnvAsDuration("ADMIN_SESSION_TTL", 8*time.Hour),
			DealerSessionTTL: getEnvAsDuration("DEALER_SESSION_TTL", 24*time.Hour),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Storage: StorageConfig{
			Provider:      getEnv("STORAGE_PROVIDER", "local"),
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", "ap-south-1"),
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		},
		Email: EmailConfig{
			Provider:  getEnv("EMAIL_PROVIDER", "smtp"),
			APIKey:    getEnv("EMAIL_API_KEY", ""),
			FromEmail: getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:  getEnv("FROM_NAME", "Orient Appliances"),
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  getEnv("SMTP_USER", ""),
			SMTPPass:  getEnv("SMTP_PASS", ""),
			NotifyTo:  getEnvAsSlice("ORDER_NOTIFY_TO", []string{}),
		},
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		},
		Upload: UploadConfig{
			MaxSize:           getEnvAsInt64("UPLOAD_MAX_SIZE", 10485760), // 10MB
			AllowedExtensions: getEnvAsSlice("UPLOAD_ALLOWED_EXTENSIONS", []string{"jpg", "jpeg", "png", "gif", "webp"}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := envconfig.Process("STORE", &config.Store); err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	if c.Admin.Email == "" || c.Admin.PasswordHash == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	if c.Store.PageSize < 1 {
		return fmt.Errorf("STORE_PAGE_SIZE must be positive")
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(c.Store.ShippingCharge)); err != nil {
		return fmt.Errorf("STORE_SHIPPING_CHARGE must be numeric: %w", err)
	}
	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
