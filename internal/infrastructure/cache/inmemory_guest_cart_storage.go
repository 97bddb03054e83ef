package cache

import (
	"context"
	"sync"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
)

// InMemoryGuestCartStorage keeps guest carts in process memory.
// Used when neither Redis nor MongoDB is configured.
type InMemoryGuestCartStorage struct {
	mu    sync.RWMutex
	carts map[string][]cart.LocalItem
}

// NewInMemoryGuestCartStorage creates an empty storage
func NewInMemoryGuestCartStorage() *InMemoryGuestCartStorage {
	return &InMemoryGuestCartStorage{carts: make(map[string][]cart.LocalItem)}
}

// Load returns a copy of the items stored for token
func (s *InMemoryGuestCartStorage) Load(_ context.Context, token string) ([]cart.LocalItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]cart.LocalItem{}, s.carts[token]...), nil
}

// Save replaces the items stored for token
func (s *InMemoryGuestCartStorage) Save(_ context.Context, token string, items []cart.LocalItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(items) == 0 {
		delete(s.carts, token)
		return nil
	}
	s.carts[token] = append([]cart.LocalItem(nil), items...)
	return nil
}

// Delete removes the guest cart
func (s *InMemoryGuestCartStorage) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.carts, token)
	s.mu.Unlock()
	return nil
}

// Ensure InMemoryGuestCartStorage implements cart.GuestCartStorage
var _ cart.GuestCartStorage = (*InMemoryGuestCartStorage)(nil)
