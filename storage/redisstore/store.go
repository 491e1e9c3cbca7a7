// Package redisstore keeps the session record in Redis, shared by every
// client pointed at the same instance and prefix.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the session keys
const DefaultPrefix = "catalog-auth:"

// Storage implements authclient.Storage on top of Redis
type Storage struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Storage using DefaultPrefix
func New(client redis.UniversalClient) *Storage {
	return &Storage{
		client: client,
		prefix: DefaultPrefix,
	}
}

// NewWithPrefix returns a Storage with a custom key prefix
func NewWithPrefix(client redis.UniversalClient, prefix string) *Storage {
	return &Storage{
		client: client,
		prefix: prefix,
	}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
