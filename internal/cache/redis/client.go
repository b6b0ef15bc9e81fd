package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/pkg/logger"
)

// Client caches full record listings so that repeated substring
// searches within the TTL window do not re-walk every backend page.
// The cache is advisory: any failure falls through to a live fetch.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetListing(ctx context.Context, key string, records []plm.Record, ttl time.Duration) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("listing:%s", key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set listing cache: %w", err)
	}

	logger.Debug("Listing cached", zap.String("key", key), zap.Int("records", len(records)), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetListing(ctx context.Context, key string) ([]plm.Record, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("listing:%s", key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get listing cache: %w", err)
	}

	var records []plm.Record
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	logger.Debug("Listing cache hit", zap.String("key", key), zap.Int("records", len(records)))
	return records, true, nil
}

func (c *Client) InvalidateListing(ctx context.Context, key string) error {
	return c.client.Del(ctx, fmt.Sprintf("listing:%s", key)).Err()
}
