package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// Filter keys understood by OrderRepository
const (
	FilterOrderStatus   = "order_status"
	FilterPaymentStatus = "payment_status"
	FilterUserID        = "user_id"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUser finds an order owned by userID; other owners yield ErrNotFound
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Order, error)

	// FindByPaymentID finds an order by its external payment intent ID
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)

	// FindByUser lists the orders of a user, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll lists orders across users
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindExpiredPending returns pending/pending orders whose expiry is at or before now
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]Order, error)

	// Save creates an order with its lines
	Save(ctx context.Context, o *Order) error

	// SaveWithLock updates an order if the stored version equals o.Version, then bumps o.Version.
	// A mismatch yields ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, o *Order) error
}

// Notifier delivers order emails. Callers treat every failure as non-fatal.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to Recipient, o *Order) error
	SendOrderStatusUpdate(ctx context.Context, to Recipient, o *Order, newStatus OrderStatus) error
}
