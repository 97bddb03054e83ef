package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// DefaultCartCacheTTL is the base lifetime of a cached cart
const DefaultCartCacheTTL = 15 * time.Minute

// cachedCart is the JSON shape of a cart in Redis
type cachedCart struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Version   int               `json:"version"`
	Items     []cart.RemoteItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RedisCartCache implements cart.CartCache. A miss returns (nil, nil).
type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCartCache creates a cart cache. TTLs get up to ttl/3 of jitter so
// carts cached together do not expire together.
func NewRedisCartCache(client *redis.Client, ttl time.Duration) *RedisCartCache {
	if ttl <= 0 {
		ttl = DefaultCartCacheTTL
	}
	return &RedisCartCache{
		client:  client,
		baseTTL: ttl,
		jitter:  ttl / 3,
	}
}

// Get returns the cached cart of userID
func (c *RedisCartCache) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	data, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cc cachedCart
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("unmarshal cached cart: %w", err)
	}
	return &cart.Cart{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: cc.ID, CreatedAt: cc.CreatedAt, UpdatedAt: cc.UpdatedAt},
			Version:    cc.Version,
		},
		UserID: cc.UserID,
		Items:  cc.Items,
	}, nil
}

// fillScript stores the cart only while the generation is unchanged.
// KEYS[1] cart, KEYS[2] generation; ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl ms.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Generation returns the invalidation counter of userID, zero if never invalidated
func (c *RedisCartCache) Generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get cart generation: %w", err)
	}
	return gen, nil
}

// Fill caches a cart under its owner unless it was invalidated after generation was read
func (c *RedisCartCache) Fill(ctx context.Context, ct *cart.Cart, generation int64) (bool, error) {
	data, err := json.Marshal(cachedCart{
		ID:        ct.ID,
		UserID:    ct.UserID,
		Version:   ct.Version,
		Items:     ct.Items,
		CreatedAt: ct.CreatedAt,
		UpdatedAt: ct.UpdatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}
	stored, err := fillScript.Run(ctx, c.client,
		[]string{cartKey(ct.UserID), generationKey(ct.UserID)},
		strconv.FormatInt(generation, 10), data, c.ttl().Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis fill cart: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached cart of userID and advances its generation.
// The generation outlives any entry filled under it.
func (c *RedisCartCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cartKey(userID))
		pipe.Incr(ctx, generationKey(userID))
		pipe.Expire(ctx, generationKey(userID), 2*(c.baseTTL+c.jitter))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate cart: %w", err)
	}
	return nil
}

func (c *RedisCartCache) ttl() time.Duration {
	if c.jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(c.jitter)
}

func cartKey(userID uuid.UUID) string {
	return "cart:user:" + userID.String()
}

func generationKey(userID uuid.UUID) string {
	return "cart:user:" + userID.String() + ":gen"
}

// Ensure RedisCartCache implements cart.CartCache
var _ cart.CartCache = (*RedisCartCache)(nil)
