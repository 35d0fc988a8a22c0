package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client used to relay player events between instances.
type Client struct {
	rdb     *redis.Client
	channel string
}

// NewClient creates a Redis client from a connection URL.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb, channel: EventsChannel}, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client, channel string) *Client {
	if channel == "" {
		channel = EventsChannel
	}
	return &Client{rdb: rdb, channel: channel}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
