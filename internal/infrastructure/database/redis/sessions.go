package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore records live back office sessions so tokens can be revoked before they expire
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a session store
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Put stores the session for ttl
func (s *SessionStore) Put(ctx context.Context, id, subject string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(id), subject, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Subject returns the subject of a live session. ok is false for unknown or expired sessions.
func (s *SessionStore) Subject(ctx context.Context, id string) (string, bool, error) {
	subject, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session: %w", err)
	}
	return subject, true, nil
}

// Delete revokes the session
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
