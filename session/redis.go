package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const redisNamespace = "storefront:session:"

// RedisStore keeps session state in Redis, for server-side embeddings of
// the client (bots, back-office tools) that share sessions across
// processes. Keys are namespaced to avoid collisions.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	// URL is a redis:// connection URL.
	URL string
	// Namespace overrides the default key prefix.
	Namespace string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts RedisStoreOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("session: redis URL is required")
	}
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}

	prefix := opts.Namespace
	if prefix == "" {
		prefix = redisNamespace
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("session: redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("session: redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
