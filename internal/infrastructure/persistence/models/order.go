package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	UserID                uuid.UUID        `gorm:"type:uuid;not null;index"`
	CartID                uuid.UUID        `gorm:"type:uuid"`
	CustomerEmail         string           `gorm:"type:varchar(255)"`
	CustomerName          string           `gorm:"type:varchar(255)"`
	AddressID             string           `gorm:"type:varchar(64)"`
	Address               string           `gorm:"type:varchar(500);not null"`
	City                  string           `gorm:"type:varchar(100);not null"`
	Pincode               string           `gorm:"type:varchar(20);not null"`
	Phone                 string           `gorm:"type:varchar(50);not null"`
	Notes                 string           `gorm:"type:text"`
	OrderStatus           string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod         string           `gorm:"type:varchar(30);not null"`
	PaymentStatus         string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Currency              string           `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentID             string           `gorm:"type:varchar(128);index"`
	PayerID               string           `gorm:"type:varchar(128)"`
	ApprovalURL           string           `gorm:"type:varchar(1024)"`
	OrderDate             time.Time        `gorm:"not null"`
	PurchaseDate          time.Time        `gorm:"type:date"`
	PreferredDeliveryTime string           `gorm:"type:varchar(20)"`
	ReceivingDate         *time.Time       `gorm:""`
	OrderUpdateDate       time.Time        `gorm:"not null"`
	ExpiresAt             *time.Time       `gorm:"index"`
	Lines                 []OrderLineModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel is a frozen order line
type OrderLineModel struct {
	OrderID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title     string          `gorm:"type:varchar(255);not null"`
	Image     string          `gorm:"type:varchar(512)"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	lines := make([]order.LineSnapshot, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = order.LineSnapshot{
			ProductID: l.ProductID,
			Title:     l.Title,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
		}
	}
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		CartID:            m.CartID,
		Customer:          order.Recipient{Email: m.CustomerEmail, Name: m.CustomerName},
		AddressInfo: order.AddressInfo{
			AddressID: m.AddressID,
			Address:   m.Address,
			City:      m.City,
			Pincode:   m.Pincode,
			Phone:     m.Phone,
			Notes:     m.Notes,
		},
		OrderStatus:           order.OrderStatus(m.OrderStatus),
		PaymentMethod:         m.PaymentMethod,
		PaymentStatus:         order.PaymentStatus(m.PaymentStatus),
		TotalAmount:           m.TotalAmount,
		Currency:              m.Currency,
		PaymentID:             m.PaymentID,
		PayerID:               m.PayerID,
		ApprovalURL:           m.ApprovalURL,
		OrderDate:             m.OrderDate,
		PurchaseDate:          m.PurchaseDate,
		PreferredDeliveryTime: m.PreferredDeliveryTime,
		ReceivingDate:         m.ReceivingDate,
		OrderUpdateDate:       m.OrderUpdateDate,
		ExpiresAt:             m.ExpiresAt,
	}
	return order.Rehydrate(o, lines)
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		UserID:                o.UserID,
		CartID:                o.CartID,
		CustomerEmail:         o.Customer.Email,
		CustomerName:          o.Customer.Name,
		AddressID:             o.AddressInfo.AddressID,
		Address:               o.AddressInfo.Address,
		City:                  o.AddressInfo.City,
		Pincode:               o.AddressInfo.Pincode,
		Phone:                 o.AddressInfo.Phone,
		Notes:                 o.AddressInfo.Notes,
		OrderStatus:           string(o.OrderStatus),
		PaymentMethod:         o.PaymentMethod,
		PaymentStatus:         string(o.PaymentStatus),
		TotalAmount:           o.TotalAmount,
		Currency:              o.Currency,
		PaymentID:             o.PaymentID,
		PayerID:               o.PayerID,
		ApprovalURL:           o.ApprovalURL,
		OrderDate:             o.OrderDate,
		PurchaseDate:          o.PurchaseDate,
		PreferredDeliveryTime: o.PreferredDeliveryTime,
		ReceivingDate:         o.ReceivingDate,
		OrderUpdateDate:       o.OrderUpdateDate,
		ExpiresAt:             utcPtr(o.ExpiresAt),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)

	lines := o.CartItems()
	m.Lines = make([]OrderLineModel, len(lines))
	for i, l := range lines {
		m.Lines[i] = OrderLineModel{
			OrderID:   o.ID,
			Position:  i,
			ProductID: l.ProductID,
			Title:     l.Title,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
		}
	}
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
