package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
)

// DefaultGuestCartTTL is how long an untouched guest cart survives
const DefaultGuestCartTTL = 7 * 24 * time.Hour

// RedisGuestCartStorage keeps guest carts as JSON under their token.
// Every save refreshes the TTL, so an active visitor never loses the cart.
type RedisGuestCartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuestCartStorage creates guest cart storage on client
func NewRedisGuestCartStorage(client *redis.Client, ttl time.Duration) *RedisGuestCartStorage {
	if ttl <= 0 {
		ttl = DefaultGuestCartTTL
	}
	return &RedisGuestCartStorage{client: client, ttl: ttl}
}

// Load returns the items stored for token, or an empty list
func (s *RedisGuestCartStorage) Load(ctx context.Context, token string) ([]cart.LocalItem, error) {
	data, err := s.client.Get(ctx, guestKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []cart.LocalItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get guest cart: %w", err)
	}
	var items []cart.LocalItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal guest cart: %w", err)
	}
	return items, nil
}

// Save replaces the stored items. An empty list deletes the key.
func (s *RedisGuestCartStorage) Save(ctx context.Context, token string, items []cart.LocalItem) error {
	if len(items) == 0 {
		return s.Delete(ctx, token)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}
	if err := s.client.Set(ctx, guestKey(token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set guest cart: %w", err)
	}
	return nil
}

// Delete removes the guest cart
func (s *RedisGuestCartStorage) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, guestKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete guest cart: %w", err)
	}
	return nil
}

func guestKey(token string) string {
	return "cart:guest:" + token
}

// Ensure RedisGuestCartStorage implements cart.GuestCartStorage
var _ cart.GuestCartStorage = (*RedisGuestCartStorage)(nil)
