// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 3 * time.Second

// Client owns the connection pool shared by the cart storage, the checkout locker, the session
// store and the rate limiter
type Client struct {
	client *redis.Client
	addr   string
}

// Options maps the Redis section of the config onto the client options
func Options(cfg *config.Config) *redis.Options {
	rc := cfg.Redis
	return &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		MaxRetries:   rc.MaxRetries,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		PoolTimeout:  rc.PoolTimeout,
	}
}

// NewConnection opens the pool and fails unless the server answers a ping
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	opts := Options(cfg)
	c := &Client{client: redis.NewClient(opts), addr: opts.Addr}

	if err := c.Health(); err != nil {
		c.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.addr, err)
	}

	log.WithFields(logrus.Fields{
		"addr":      c.addr,
		"db":        opts.DB,
		"pool_size": opts.PoolSize,
	}).Info("Redis connection established")
	return c, nil
}

// GetClient returns the underlying go-redis client
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// Health pings the server
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close drains the pool
func (c *Client) Close() error {
	return c.client.Close()
}
