package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const productKeyPrefix = "product:"

// Client is a thin Redis wrapper used as a read cache for product
// payloads.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProduct returns the cached payload for a SKU, or nil on a miss.
func (c *Client) GetProduct(ctx context.Context, id int64) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, fmt.Sprintf("%s%d", productKeyPrefix, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SetProduct caches a SKU payload with a TTL.
func (c *Client) SetProduct(ctx context.Context, id int64, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("%s%d", productKeyPrefix, id), payload, ttl).Err()
}

// InvalidateProducts drops every cached product payload. Called after a
// catalog import replaces a shop's SKUs.
func (c *Client) InvalidateProducts(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, productKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
