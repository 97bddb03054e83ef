package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			ok, remaining, err := limiter.Allow(ctx, "client")
			require.NoError(t, err)
			assert.True(t, ok, "request %d should be allowed", i+1)
			assert.Equal(t, 2-i, remaining)
		}
		ok, _, _ := limiter.Allow(ctx, "client")
		assert.False(t, ok)
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()

		ok, _, _ := limiter.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _, _ = limiter.Allow(ctx, "a")
		assert.False(t, ok)
		ok, _, _ = limiter.Allow(ctx, "b")
		assert.True(t, ok)
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(1, 50*time.Millisecond)
		defer limiter.Stop()

		ok, _, _ := limiter.Allow(ctx, "c")
		assert.True(t, ok)
		ok, _, _ = limiter.Allow(ctx, "c")
		assert.False(t, ok)

		time.Sleep(60 * time.Millisecond)
		ok, _, _ = limiter.Allow(ctx, "c")
		assert.True(t, ok)
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		limiter := NewRateLimiter(50, time.Minute)
		defer limiter.Stop()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _, _ := limiter.Allow(ctx, "shared"); ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewRedisRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	ok, remaining, err := limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	// counters carry a TTL so abandoned windows disappear
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))

	mr.Close()
	_, _, err = limiter.Allow(ctx, "ip:1.2.3.4")
	assert.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("redis down")
}

func (failingLimiter) Limit() int { return 1 }

func TestRateLimitMiddleware(t *testing.T) {
	newRouter := func(l Limiter) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(l, zap.NewNop()))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	t.Run("returns 429 with headers", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()
		router := newRouter(limiter)

		w := serve(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		w = serve(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	})

	t.Run("fails open when the limiter errors", func(t *testing.T) {
		w := serve(newRouter(failingLimiter{}), http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitKey(t *testing.T) {
	router := gin.New()
	router.GET("/anon", func(c *gin.Context) { c.String(http.StatusOK, RateLimitKey(c)) })
	router.GET("/user", func(c *gin.Context) {
		c.Set(JWTUserIDKey, "u-1")
		c.String(http.StatusOK, RateLimitKey(c))
	})

	assert.Equal(t, "ip:192.0.2.1", serve(router, http.MethodGet, "/anon", nil).Body.String())
	assert.Equal(t, "user:u-1", serve(router, http.MethodGet, "/user", nil).Body.String())
}
