package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// ReservationStatus represents the state of a stock reservation
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusConsumed ReservationStatus = "consumed"
	ReservationStatusReleased ReservationStatus = "released"
)

// StockReservation holds units of a product for a pending order until the
// order is captured, cancelled or expires.
type StockReservation struct {
	shared.BaseEntity
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Status     ReservationStatus
	ExpiresAt  time.Time
	ResolvedAt *time.Time
}

// NewStockReservation creates an active reservation
func NewStockReservation(orderID, productID uuid.UUID, quantity int, expiresAt time.Time) (*StockReservation, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	return &StockReservation{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
		Status:     ReservationStatusActive,
		ExpiresAt:  expiresAt,
	}, nil
}

// IsActive returns true if the reservation still holds stock
func (r *StockReservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// IsExpired returns true if the hold window has passed
func (r *StockReservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Consume marks the reservation as fulfilled by a capture
func (r *StockReservation) Consume() error {
	return r.resolve(ReservationStatusConsumed)
}

// Release gives the held units back
func (r *StockReservation) Release() error {
	return r.resolve(ReservationStatusReleased)
}

func (r *StockReservation) resolve(status ReservationStatus) error {
	if !r.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Reservation is no longer active")
	}
	now := time.Now()
	r.Status = status
	r.ResolvedAt = &now
	r.UpdatedAt = now
	return nil
}

// ReservationRepository persists stock reservations
type ReservationRepository interface {
	// SaveBatch inserts reservations
	SaveBatch(ctx context.Context, reservations []*StockReservation) error

	// FindActiveByOrder returns the active reservations of an order
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]StockReservation, error)

	// SumActiveByProducts returns the reserved quantity per product for unexpired active reservations
	SumActiveByProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int, error)

	// ResolveByOrder moves every active reservation of the order to status.
	// Returns the number of rows changed.
	ResolveByOrder(ctx context.Context, orderID uuid.UUID, status ReservationStatus) (int64, error)
}
