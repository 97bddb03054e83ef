package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// DefaultCurrency is used when checkout does not name one
const DefaultCurrency = "USD"

// LineSnapshot is an order line frozen at checkout. It holds copies, never
// references, so later catalog or cart changes cannot reach it.
type LineSnapshot struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns Price * Quantity
func (l LineSnapshot) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Recipient identifies who receives order notifications
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Order is the aggregate root of the order lifecycle.
// It starts pending/pending and reaches confirmed/paid only through MarkPaid.
type Order struct {
	shared.BaseAggregateRoot
	UserID                uuid.UUID
	CartID                uuid.UUID
	Customer              Recipient
	lines                 []LineSnapshot
	AddressInfo           AddressInfo
	OrderStatus           OrderStatus
	PaymentMethod         string
	PaymentStatus         PaymentStatus
	TotalAmount           decimal.Decimal
	Currency              string
	PaymentID             string
	PayerID               string
	ApprovalURL           string
	OrderDate             time.Time
	PurchaseDate          time.Time
	PreferredDeliveryTime string
	ReceivingDate         *time.Time
	OrderUpdateDate       time.Time
	ExpiresAt             *time.Time
}

// PlaceOrderParams carries what checkout knows when it builds an order
type PlaceOrderParams struct {
	UserID        uuid.UUID
	CartID        uuid.UUID
	Customer      Recipient
	Lines         []LineSnapshot
	Address       AddressInfo
	Schedule      DeliverySchedule
	PaymentMethod string
	Currency      string
}

// PlaceOrder creates a pending/pending order from a cart snapshot.
// The delivery schedule is expected to be validated by the caller's policy.
func PlaceOrder(p PlaceOrderParams) (*Order, error) {
	if p.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if len(p.Lines) == 0 {
		return nil, shared.NewValidationError(map[string]string{"cart_items": "cart is empty"})
	}
	if err := p.Address.Validate(); err != nil {
		return nil, err
	}

	lines := make([]LineSnapshot, len(p.Lines))
	total := decimal.Zero
	for i, l := range p.Lines {
		if l.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Order line has no product")
		}
		if l.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity for %s must be at least 1", l.ProductID))
		}
		if l.Price.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", fmt.Sprintf("Price for %s cannot be negative", l.ProductID))
		}
		lines[i] = l
		total = total.Add(l.Subtotal())
	}

	method := strings.TrimSpace(p.PaymentMethod)
	if method == "" {
		method = "paypal"
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	now := time.Now()
	o := &Order{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		UserID:                p.UserID,
		CartID:                p.CartID,
		Customer:              p.Customer,
		lines:                 lines,
		AddressInfo:           p.Address,
		OrderStatus:           OrderStatusPending,
		PaymentMethod:         method,
		PaymentStatus:         PaymentStatusPending,
		TotalAmount:           total.Round(2),
		Currency:              currency,
		OrderDate:             now,
		PurchaseDate:          p.Schedule.Date,
		PreferredDeliveryTime: strings.TrimSpace(p.Schedule.TimeSlot),
		OrderUpdateDate:       now,
	}
	return o, nil
}

// Rehydrate rebuilds an order from storage. It performs no validation.
func Rehydrate(o *Order, lines []LineSnapshot) *Order {
	o.lines = append([]LineSnapshot(nil), lines...)
	return o
}

// CartItems returns a copy of the frozen line snapshots
func (o *Order) CartItems() []LineSnapshot {
	out := make([]LineSnapshot, len(o.lines))
	copy(out, o.lines)
	return out
}

// AttachPaymentIntent records the external authorization created for the order
// and starts the pending expiry window.
func (o *Order) AttachPaymentIntent(intentID, approvalURL string, expiresAt time.Time) error {
	if !o.isPendingPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach payment to order in %s/%s", o.OrderStatus, o.PaymentStatus))
	}
	if strings.TrimSpace(intentID) == "" {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment intent ID cannot be empty")
	}
	o.PaymentID = intentID
	o.ApprovalURL = approvalURL
	o.ExpiresAt = &expiresAt
	o.OrderUpdateDate = time.Now()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// MarkPaid moves the order to confirmed/paid after a successful capture
func (o *Order) MarkPaid(paymentID, payerID string) error {
	if !o.isPendingPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot capture order in %s/%s", o.OrderStatus, o.PaymentStatus))
	}
	if paymentID == "" || paymentID != o.PaymentID {
		return shared.NewValidationError(map[string]string{"payment_id": "does not match the order"})
	}
	if strings.TrimSpace(payerID) == "" {
		return shared.NewValidationError(map[string]string{"payer_id": "is required"})
	}

	now := time.Now()
	o.OrderStatus = OrderStatusConfirmed
	o.PaymentStatus = PaymentStatusPaid
	o.PayerID = payerID
	o.OrderUpdateDate = now
	o.UpdatedAt = now
	o.ExpiresAt = nil
	o.AddDomainEvent(NewOrderConfirmedEvent(o))
	return nil
}

// IsCapturedWith reports whether the order is already paid through paymentID
func (o *Order) IsCapturedWith(paymentID string) bool {
	return o.OrderStatus == OrderStatusConfirmed && o.PaymentStatus == PaymentStatusPaid && o.PaymentID == paymentID
}

// ChangeStatus applies an administrative status change
func (o *Order) ChangeStatus(target OrderStatus) error {
	if !target.IsAdminSettable() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Status %q cannot be set by an administrator", target))
	}
	if !o.OrderStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change order from %s to %s", o.OrderStatus, target))
	}

	now := time.Now()
	old := o.OrderStatus
	o.OrderStatus = target
	if target == OrderStatusDelivered {
		o.ReceivingDate = &now
	}
	if target == OrderStatusRejected && o.PaymentStatus == PaymentStatusPending {
		o.PaymentStatus = PaymentStatusFailed
		o.ExpiresAt = nil
	}
	o.OrderUpdateDate = now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	return nil
}

// Cancel abandons a pending order on behalf of its owner
func (o *Order) Cancel() error {
	if !o.isPendingPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s/%s", o.OrderStatus, o.PaymentStatus))
	}
	now := time.Now()
	old := o.OrderStatus
	o.OrderStatus = OrderStatusRejected
	o.PaymentStatus = PaymentStatusFailed
	o.ExpiresAt = nil
	o.OrderUpdateDate = now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	return nil
}

// Expire closes a pending order whose payment window has passed
func (o *Order) Expire(now time.Time) error {
	if !o.isPendingPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot expire order in %s/%s", o.OrderStatus, o.PaymentStatus))
	}
	if !o.IsExpired(now) {
		return shared.NewDomainError("INVALID_STATE", "Order has not reached its expiry")
	}
	o.OrderStatus = OrderStatusExpired
	o.PaymentStatus = PaymentStatusFailed
	o.OrderUpdateDate = now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderExpiredEvent(o))
	return nil
}

// IsExpired returns true if the order is pending and its window has passed
func (o *Order) IsExpired(now time.Time) bool {
	return o.isPendingPending() && o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

// IsPending returns true while the order awaits payment
func (o *Order) IsPending() bool {
	return o.isPendingPending()
}

// BelongsTo returns true if userID owns the order
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID == userID
}

// TotalQuantity returns the number of units across all lines
func (o *Order) TotalQuantity() int {
	n := 0
	for _, l := range o.lines {
		n += l.Quantity
	}
	return n
}

func (o *Order) isPendingPending() bool {
	return o.OrderStatus == OrderStatusPending && o.PaymentStatus == PaymentStatusPending
}
