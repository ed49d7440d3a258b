package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mbti/internal/domain"
)

// Config holds connection details for the Redis prediction cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache stores predictions as JSON strings with an optional expiry.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewCache connects and pings the server.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

func (c *Cache) Name() string { return "redis" }

func (c *Cache) Get(ctx context.Context, key string) (*domain.Prediction, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p domain.Prediction
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, fmt.Errorf("decode cached prediction: %w", err)
	}
	return &p, nil
}

func (c *Cache) Set(ctx context.Context, key string, p *domain.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) Close() error { return c.client.Close() }
