// Package cache provides a Redis-backed caching layer.
//
// Key strategy:
//   - Run summaries: gra:run:v1:{sha256(businessType|location|source)} → TTL configurable (default 1 h)
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/saruni-spec/GRA/internal/domain"
)

const (
	DefaultRunTTL = time.Hour

	runPrefix = "gra:run:v1:"
)

// Client wraps redis.Client with domain-aware helpers.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a new cache Client. ttl <= 0 uses DefaultRunTTL.
// addr example: "localhost:6379"
func New(addr, password string, db int, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{rdb: rdb, ttl: ttl}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }

// RunKey returns the cache key for a run. Inputs are compared
// case-insensitively and without surrounding spaces.
func RunKey(businessType, location, source string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	raw := norm(businessType) + "|" + norm(location) + "|" + norm(source)
	h := sha256.Sum256([]byte(raw))
	return runPrefix + fmt.Sprintf("%x", h)
}

// GetRun returns a cached run summary, or nil on miss.
func (c *Client) GetRun(ctx context.Context, key string) (*domain.RunSummary, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: get run")
	}
	var s domain.RunSummary
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, eris.Wrap(err, "cache: decode run")
	}
	return &s, nil
}

// SetRun stores a run summary with the client's TTL.
func (c *Client) SetRun(ctx context.Context, key string, s *domain.RunSummary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "cache: encode run")
	}
	return eris.Wrap(c.rdb.Set(ctx, key, b, c.ttl).Err(), "cache: set run")
}

// DeleteRun removes a run cache entry.
func (c *Client) DeleteRun(ctx context.Context, key string) error {
	return eris.Wrap(c.rdb.Del(ctx, key).Err(), "cache: delete run")
}
