package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// DateLayout is the wire format of purchase_date
const DateLayout = "2006-01-02"

// AddressInput is the shipping address sent at checkout
type AddressInput struct {
	AddressID string `json:"address_id"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

func (a AddressInput) toDomain() order.AddressInfo {
	return order.AddressInfo{
		AddressID: a.AddressID,
		Address:   a.Address,
		City:      a.City,
		Pincode:   a.Pincode,
		Phone:     a.Phone,
		Notes:     a.Notes,
	}
}

// CheckoutRequest starts an order from the caller's server cart.
// Delivery fields are validated by the service, not by binding, so a bad
// schedule always yields the same ValidationError shape.
type CheckoutRequest struct {
	Address               AddressInput `json:"address_info"`
	PaymentMethod         string       `json:"payment_method"`
	PurchaseDate          string       `json:"purchase_date"`
	PreferredDeliveryTime string       `json:"preferred_delivery_time"`
	Currency              string       `json:"currency"`
	ReturnURL             string       `json:"return_url"`
	CancelURL             string       `json:"cancel_url"`
}

// schedule parses the delivery fields in loc
func (r CheckoutRequest) schedule(loc *time.Location) (order.DeliverySchedule, error) {
	s := order.DeliverySchedule{TimeSlot: r.PreferredDeliveryTime}
	if r.PurchaseDate == "" {
		return s, nil
	}
	d, err := time.ParseInLocation(DateLayout, r.PurchaseDate, loc)
	if err != nil {
		return s, shared.NewValidationError(map[string]string{"purchase_date": "must be formatted as YYYY-MM-DD"})
	}
	s.Date = d
	return s, nil
}

// CheckoutResponse tells the client where to approve the payment
type CheckoutResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	ApprovalURL string          `json:"approval_url"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// CaptureRequest is sent after the shopper approved the payment
type CaptureRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	PaymentID string    `json:"payment_id" binding:"required"`
	PayerID   string    `json:"payer_id" binding:"required"`
}

// UpdateStatusRequest is an admin status change
type UpdateStatusRequest struct {
	OrderStatus string `json:"order_status" binding:"required"`
}

// OrderLineResponse is one frozen order line
type OrderLineResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID                    uuid.UUID           `json:"id"`
	UserID                uuid.UUID           `json:"user_id"`
	CartID                uuid.UUID           `json:"cart_id"`
	CartItems             []OrderLineResponse `json:"cart_items"`
	AddressInfo           order.AddressInfo   `json:"address_info"`
	OrderStatus           string              `json:"order_status"`
	PaymentMethod         string              `json:"payment_method"`
	PaymentStatus         string              `json:"payment_status"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	Currency              string              `json:"currency"`
	PaymentID             string              `json:"payment_id,omitempty"`
	PayerID               string              `json:"payer_id,omitempty"`
	OrderDate             time.Time           `json:"order_date"`
	PurchaseDate          string              `json:"purchase_date,omitempty"`
	PreferredDeliveryTime string              `json:"preferred_delivery_time,omitempty"`
	ReceivingDate         *time.Time          `json:"receiving_date,omitempty"`
	OrderUpdateDate       time.Time           `json:"order_update_date"`
	ExpiresAt             *time.Time          `json:"expires_at,omitempty"`
	Version               int                 `json:"version"`
}

// ToOrderResponse converts a domain order to its response
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := o.CartItems()
	items := make([]OrderLineResponse, len(lines))
	for i, l := range lines {
		items[i] = OrderLineResponse{
			ProductID: l.ProductID,
			Title:     l.Title,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	resp := OrderResponse{
		ID:                    o.ID,
		UserID:                o.UserID,
		CartID:                o.CartID,
		CartItems:             items,
		AddressInfo:           o.AddressInfo,
		OrderStatus:           string(o.OrderStatus),
		PaymentMethod:         o.PaymentMethod,
		PaymentStatus:         string(o.PaymentStatus),
		TotalAmount:           o.TotalAmount,
		Currency:              o.Currency,
		PaymentID:             o.PaymentID,
		PayerID:               o.PayerID,
		OrderDate:             o.OrderDate,
		PreferredDeliveryTime: o.PreferredDeliveryTime,
		ReceivingDate:         o.ReceivingDate,
		OrderUpdateDate:       o.OrderUpdateDate,
		ExpiresAt:             o.ExpiresAt,
		Version:               o.Version,
	}
	if !o.PurchaseDate.IsZero() {
		resp.PurchaseDate = o.PurchaseDate.Format(DateLayout)
	}
	return resp
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
