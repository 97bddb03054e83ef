package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

// Stores bundles the key-value backed adapters used by the cart layer
type Stores struct {
	Idempotency shared.IdempotencyStore
	// CartCache is nil when Redis is unavailable
	CartCache cart.CartCache
	Guest     cart.GuestCartStorage
	// Client is nil when the in-memory fallback is in use
	Client *redis.Client
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	if err := s.Idempotency.Close(); err != nil {
		return err
	}
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// StoreFactory builds Stores from configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	cartConfig            config.CartConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(redisCfg config.RedisConfig, cartCfg config.CartConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           redisCfg,
		cartConfig:            cartCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create connects to Redis and builds Redis-backed stores. When Redis is
// unreachable and fallback is allowed, it returns process-local stores instead.
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis for idempotency keys, cart cache and guest carts",
			zap.String("addr", client.Options().Addr),
		)
		return f.FromClient(client), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Merge keys will not be shared between instances.",
		zap.Error(err),
	)
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Guest:       NewInMemoryGuestCartStorage(),
	}, nil
}

// FromClient builds Redis-backed stores on an existing client
func (f *StoreFactory) FromClient(client *redis.Client) *Stores {
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client, DefaultIdempotencyPrefix),
		CartCache:   NewRedisCartCache(client, f.cartConfig.CacheTTL),
		Guest:       NewRedisGuestCartStorage(client, f.cartConfig.GuestTTL),
		Client:      client,
	}
}
