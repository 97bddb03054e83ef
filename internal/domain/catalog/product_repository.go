package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs. Missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Save creates a product or updates it when its version still matches the
	// stored one. A stale product yields shared.ErrConcurrencyConflict.
	Save(ctx context.Context, product *Product) error

	// IncrementStock atomically raises total_stock by quantity
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error

	// DecrementStock atomically lowers total_stock by quantity.
	// Returns ErrNotFound for an unknown product and ErrInsufficientStock when
	// the counter would go negative.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
