package cart

import (
	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// AggregateTypeCart is the aggregate type of Cart
const AggregateTypeCart = "Cart"

// EventTypeCartMerged is emitted when a guest cart is folded into a server cart
const EventTypeCartMerged = "CartMerged"

// CartMergedEvent is published after a merge changed the cart
type CartMergedEvent struct {
	shared.BaseDomainEvent
	CartID    uuid.UUID `json:"cart_id"`
	UserID    uuid.UUID `json:"user_id"`
	Inserted  int       `json:"inserted"`
	Increased int       `json:"increased"`
	Signature string    `json:"signature"`
}

// NewCartMergedEvent creates a new CartMergedEvent
func NewCartMergedEvent(c *Cart, res MergeResult) *CartMergedEvent {
	return &CartMergedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartMerged, AggregateTypeCart, c.ID),
		CartID:          c.ID,
		UserID:          c.UserID,
		Inserted:        res.Inserted,
		Increased:       res.Increased,
		Signature:       c.Signature(),
	}
}
