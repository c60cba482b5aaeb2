package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout is the timeout for verifying Redis connection.
const connectionTimeout = 5 * time.Second

const keyPrefix = "content-studio:dedup:"

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisIndex stores fingerprints as Redis keys with a TTL, so every server
// instance sharing the Redis sees the same duplicate window.
type RedisIndex struct {
	client redis.Cmdable
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex wraps an existing client. The caller owns the client's lifecycle.
func NewRedisIndex(client redis.Cmdable) *RedisIndex {
	return &RedisIndex{client: client}
}

func (r *RedisIndex) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	id, err := r.client.Get(ctx, keyPrefix+fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dedup: redis get: %w", err)
	}
	return id, true, nil
}

func (r *RedisIndex) Remember(ctx context.Context, fingerprint, id string, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+fingerprint, id, ttl).Err(); err != nil {
		return fmt.Errorf("dedup: redis set: %w", err)
	}
	return nil
}
