package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/auth"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked jti is blacklisted", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()

		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))

		revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = blacklist.IsBlacklisted(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("entries expire", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()

		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-short", time.Millisecond))
		time.Sleep(10 * time.Millisecond)

		revoked, err := blacklist.IsBlacklisted(ctx, "jti-short")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("already expired token is not stored", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()

		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-old", 0))
		revoked, err := blacklist.IsBlacklisted(ctx, "jti-old")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestRedisTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	blacklist := auth.NewRedisTokenBlacklist(client)

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
	assert.True(t, mr.Exists("token:blacklist:jti:jti-1"))

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.Close()
	_, err = blacklist.IsBlacklisted(ctx, "jti-1")
	assert.Error(t, err)
}
