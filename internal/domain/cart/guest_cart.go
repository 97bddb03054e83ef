package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// GuestCartStorage is the durable backing of a guest cart, keyed by an opaque token.
// Load on an unknown token returns an empty list, not an error.
type GuestCartStorage interface {
	Load(ctx context.Context, token string) ([]LocalItem, error)
	Save(ctx context.Context, token string, items []LocalItem) error
	Delete(ctx context.Context, token string) error
}

// GuestCartStore holds the cart of an unauthenticated visitor.
// Every mutation updates the in-memory list and then writes the full list
// to storage before returning; a failed write restores the previous list.
type GuestCartStore struct {
	mu      sync.Mutex
	token   string
	storage GuestCartStorage
	items   []LocalItem
}

// OpenGuestCart loads the guest cart for token from storage
func OpenGuestCart(ctx context.Context, storage GuestCartStorage, token string) (*GuestCartStore, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError("INVALID_GUEST_TOKEN", "Guest token cannot be empty")
	}
	items, err := storage.Load(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	return &GuestCartStore{
		token:   token,
		storage: storage,
		items:   normalize(items),
	}, nil
}

// Token returns the guest token
func (s *GuestCartStore) Token() string {
	return s.token
}

// Items returns a copy of the current lines
func (s *GuestCartStore) Items() []LocalItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LocalItem, len(s.items))
	copy(out, s.items)
	return out
}

// Signature returns the content signature of the guest cart
func (s *GuestCartStore) Signature() string {
	return Signature(s.Items())
}

// IsEmpty returns true if the guest cart has no lines
func (s *GuestCartStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// AddItem increments the line for the product or appends a new one.
// Stock is not checked here.
func (s *GuestCartStore) AddItem(ctx context.Context, product catalog.ProductSnapshot, quantity int) error {
	if product.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	return s.mutate(ctx, func(items []LocalItem) ([]LocalItem, error) {
		for i := range items {
			if items[i].ProductID() == product.ProductID {
				items[i].Qty = min(items[i].Qty+quantity, MaxLineQuantity)
				items[i].Product = product
				return items, nil
			}
		}
		return append(items, NewLocalItem(product, min(quantity, MaxLineQuantity))), nil
	})
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (s *GuestCartStore) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	return s.mutate(ctx, func(items []LocalItem) ([]LocalItem, error) {
		for i := range items {
			if items[i].ProductID() != productID {
				continue
			}
			if quantity <= 0 {
				return append(items[:i], items[i+1:]...), nil
			}
			items[i].Qty = min(quantity, MaxLineQuantity)
			return items, nil
		}
		return nil, shared.NewNotFoundError("Cart item", productID.String())
	})
}

// RemoveItem removes a line. Removing an absent product is a no-op.
func (s *GuestCartStore) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	return s.mutate(ctx, func(items []LocalItem) ([]LocalItem, error) {
		for i := range items {
			if items[i].ProductID() == productID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return items, nil
	})
}

// Clear empties the cart and deletes its durable backing
func (s *GuestCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Delete(ctx, s.token); err != nil {
		return fmt.Errorf("delete guest cart: %w", err)
	}
	s.items = s.items[:0]
	return nil
}

// mutate applies fn to a working copy, persists it, then swaps it in
func (s *GuestCartStore) mutate(ctx context.Context, fn func([]LocalItem) ([]LocalItem, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make([]LocalItem, len(s.items))
	copy(working, s.items)

	next, err := fn(working)
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, s.token, next); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}
	s.items = next
	return nil
}

// normalize drops lines that violate the quantity floor and folds duplicates
func normalize(items []LocalItem) []LocalItem {
	out := make([]LocalItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if it.Qty < 1 || it.ProductID() == uuid.Nil {
			continue
		}
		if i, ok := index[it.ProductID()]; ok {
			out[i].Qty = min(out[i].Qty+it.Qty, MaxLineQuantity)
			continue
		}
		index[it.ProductID()] = len(out)
		out = append(out, it)
	}
	return out
}
