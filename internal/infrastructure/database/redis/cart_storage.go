package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// ErrTooMuchContention is returned when an optimistic update keeps losing the race
var ErrTooMuchContention = errors.New("too many concurrent updates")

// CartStorage keeps serialized carts under their session key with a sliding TTL
type CartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStorage creates a cart storage. Every write refreshes the TTL.
func NewCartStorage(client *redis.Client, ttl time.Duration) *CartStorage {
	return &CartStorage{client: client, ttl: ttl}
}

// Load returns the stored cart blob, or nil when the session has none
func (s *CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return raw, nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another writer got there first
func (s *CartStorage) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return ErrTooMuchContention
}
