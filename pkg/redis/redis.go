package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viznest/viznest-backend/config"
	"github.com/viznest/viznest-backend/pkg/logger"
)

const blacklistPrefix = "blacklist:"

// Client wraps the go-redis client with the token blacklist used by auth
type Client struct {
	rdb *redis.Client
}

// Connect dials Redis and verifies the connection with a ping
func Connect(cfg *config.RedisConfig) (*Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr,
		})
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return &Client{rdb: rdb}, nil
}

// Wrap adopts an existing go-redis client
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Raw exposes the underlying client for stores that need their own keyspace
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	logger.Info("Closing Redis connection")
	return c.rdb.Close()
}

// BlacklistToken revokes a token id until it would have expired anyway
func (c *Client) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"token_id": tokenID,
		"ttl":      ttl.String(),
	})

	if err := c.rdb.Set(ctx, blacklistPrefix+tokenID, "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

// RevokeOnce blacklists a token id only if it was not revoked already.
// It reports false when another caller got there first, which makes
// single-use tokens safe under concurrent use.
func (c *Client) RevokeOnce(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	ok, err := c.rdb.SetNX(ctx, blacklistPrefix+tokenID, "revoked", ttl).Result()
	if err != nil {
		logger.Error("Failed to revoke token", err)
		return false, err
	}
	return ok, nil
}

// IsTokenBlacklisted reports whether the token id was revoked
func (c *Client) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	val, err := c.rdb.Get(ctx, blacklistPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}
