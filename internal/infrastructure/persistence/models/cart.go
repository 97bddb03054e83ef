package models

import (
	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
)

// CartModel is the persistence model for the server-side Cart aggregate root
type CartModel struct {
	AggregateModel
	UserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Items  []CartItemModel `gorm:"foreignKey:CartID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel is one cart line
type CartItemModel struct {
	CartID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity  int       `gorm:"not null"`
	Position  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	items := make([]cart.RemoteItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = cart.NewRemoteItem(it.ProductID, it.Quantity)
	}
	return &cart.Cart{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Items:             items,
	}
}

// CartModelFromDomain creates a new persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{UserID: c.UserID}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Items = make([]CartItemModel, len(c.Items))
	for i, it := range c.Items {
		m.Items[i] = CartItemModel{
			CartID:    c.ID,
			ProductID: it.ProductRef,
			Quantity:  it.Qty,
			Position:  i,
		}
	}
	return m
}
