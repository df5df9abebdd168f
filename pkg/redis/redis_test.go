package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestBlacklistToken(t *testing.T) {
	c, mr := setupClient(t)
	ctx := context.Background()

	revoked, err := c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))
	revoked, err = c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistExpiredTokenIsNoop(t *testing.T) {
	c, mr := setupClient(t)

	require.NoError(t, c.BlacklistToken(context.Background(), "jti-2", 0))
	assert.False(t, mr.Exists(blacklistPrefix+"jti-2"))
}

func TestRevokeOnce(t *testing.T) {
	c, mr := setupClient(t)
	ctx := context.Background()

	first, err := c.RevokeOnce(ctx, "jti-3", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.RevokeOnce(ctx, "jti-3", time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "a token can only be claimed once")

	revoked, err := c.IsTokenBlacklisted(ctx, "jti-3")
	require.NoError(t, err)
	assert.True(t, revoked)

	expired, err := c.RevokeOnce(ctx, "jti-4", 0)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.False(t, mr.Exists(blacklistPrefix+"jti-4"))
}
