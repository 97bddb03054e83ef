package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository persists server carts, one per user
type CartRepository interface {
	// FindByUserID returns the cart of a user, or ErrNotFound
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// FindByID returns a cart by id, or ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// Save creates or replaces a cart and its lines
	Save(ctx context.Context, c *Cart) error

	// Delete removes a cart and its lines. Deleting a missing cart is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartCache is a read-through cache in front of CartRepository.
//
// Every Invalidate advances the user's generation. A reader takes the
// generation before loading from the repository and passes it to Fill, which
// stores nothing if a write invalidated the entry in the meantime. This keeps
// a slow reader from re-caching a cart older than the last write.
type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Generation(ctx context.Context, userID uuid.UUID) (int64, error)
	// Fill caches c if the generation is still the given one and reports whether it did
	Fill(ctx context.Context, c *Cart, generation int64) (bool, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
