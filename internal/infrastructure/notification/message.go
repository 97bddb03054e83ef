package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// Message types
const (
	TypeOrderConfirmation = "order.confirmation"
	TypeOrderStatusUpdate = "order.status_update"
)

// Message is the payload every transport publishes.
// Mail delivery is done by a downstream consumer.
type Message struct {
	Type          string        `json:"type"`
	OrderID       uuid.UUID     `json:"order_id"`
	UserID        uuid.UUID     `json:"user_id"`
	To            string        `json:"to"`
	Name          string        `json:"name"`
	OrderStatus   string        `json:"order_status"`
	PaymentStatus string        `json:"payment_status"`
	TotalAmount   string        `json:"total_amount"`
	Currency      string        `json:"currency"`
	DeliveryDate  string        `json:"delivery_date,omitempty"`
	DeliverySlot  string        `json:"delivery_slot,omitempty"`
	Lines         []MessageLine `json:"lines,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// MessageLine is one order line as shown in the email
type MessageLine struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func newMessage(kind string, to order.Recipient, o *order.Order, status order.OrderStatus, now time.Time) Message {
	msg := Message{
		Type:          kind,
		OrderID:       o.ID,
		UserID:        o.UserID,
		To:            to.Email,
		Name:          to.Name,
		OrderStatus:   string(status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Currency:      o.Currency,
		DeliverySlot:  o.PreferredDeliveryTime,
		OccurredAt:    now.UTC(),
	}
	if o.ReceivingDate != nil {
		msg.DeliveryDate = o.ReceivingDate.Format(time.DateOnly)
	}
	if kind == TypeOrderConfirmation {
		for _, l := range o.CartItems() {
			msg.Lines = append(msg.Lines, MessageLine{Title: l.Title, Quantity: l.Quantity, Price: l.Price.StringFixed(2)})
		}
	}
	return msg
}

func confirmationMessage(to order.Recipient, o *order.Order, now time.Time) Message {
	return newMessage(TypeOrderConfirmation, to, o, o.OrderStatus, now)
}

func statusUpdateMessage(to order.Recipient, o *order.Order, status order.OrderStatus, now time.Time) Message {
	return newMessage(TypeOrderStatusUpdate, to, o, status, now)
}

func (m Message) encode() ([]byte, error) {
	return json.Marshal(m)
}
