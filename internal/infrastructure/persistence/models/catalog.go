package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
// total_stock is guarded by a CHECK constraint as well as the conditional decrement.
type ProductModel struct {
	AggregateModel
	Title       string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Image       string          `gorm:"type:varchar(512)"`
	Category    string          `gorm:"type:varchar(100);index"`
	Brand       string          `gorm:"type:varchar(100);index"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalStock  int             `gorm:"not null;default:0;check:total_stock >= 0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Title:             m.Title,
		Description:       m.Description,
		Image:             m.Image,
		Category:          m.Category,
		Brand:             m.Brand,
		Price:             m.Price,
		SalePrice:         m.SalePrice,
		TotalStock:        m.TotalStock,
	}
}

// FromDomain populates the persistence model from a domain Product entity
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Title = p.Title
	m.Description = p.Description
	m.Image = p.Image
	m.Category = p.Category
	m.Brand = p.Brand
	m.Price = p.Price
	m.SalePrice = p.SalePrice
	m.TotalStock = p.TotalStock
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// StockReservationModel is the persistence model for StockReservation
type StockReservationModel struct {
	BaseModel
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_reservation_product_status"`
	Quantity   int        `gorm:"not null"`
	Status     string     `gorm:"type:varchar(20);not null;default:'active';index:idx_reservation_product_status"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	ResolvedAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (StockReservationModel) TableName() string {
	return "stock_reservations"
}

// ToDomain converts the persistence model to a domain StockReservation
func (m *StockReservationModel) ToDomain() *catalog.StockReservation {
	return &catalog.StockReservation{
		BaseEntity: m.BaseModel.ToDomain(),
		OrderID:    m.OrderID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
		Status:     catalog.ReservationStatus(m.Status),
		ExpiresAt:  m.ExpiresAt,
		ResolvedAt: m.ResolvedAt,
	}
}

// StockReservationModelFromDomain creates a new persistence model from a domain StockReservation
func StockReservationModelFromDomain(r *catalog.StockReservation) *StockReservationModel {
	m := &StockReservationModel{
		OrderID:    r.OrderID,
		ProductID:  r.ProductID,
		Quantity:   r.Quantity,
		Status:     string(r.Status),
		ExpiresAt:  r.ExpiresAt.UTC(),
		ResolvedAt: r.ResolvedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
