package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/artgallery/gallery-web/internal/infrastructure/db/localstate"
)

// Store is a localstate.KeyValue backed by Redis.
// Key format: gallery:<namespace>:<key>
type Store struct {
	client    *redis.Client
	namespace string
}

// NewStore wraps client. Values never expire; logout deletes them.
func NewStore(client *redis.Client, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, localstate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return fmt.Sprintf("gallery:%s:%s", s.namespace, k)
}
