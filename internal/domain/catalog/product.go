package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// Product represents a sellable item and its stock counter.
// TotalStock is the Stock Ledger entry for the product and never goes negative.
type Product struct {
	shared.BaseAggregateRoot
	Title       string
	Description string
	Image       string
	Category    string
	Brand       string
	Price       decimal.Decimal
	SalePrice   decimal.Decimal
	TotalStock  int
}

// NewProduct creates a new product
func NewProduct(title string, price decimal.Decimal, totalStock int) (*Product, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if totalStock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Total stock cannot be negative")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Price:             price,
		SalePrice:         decimal.Zero,
		TotalStock:        totalStock,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// EffectivePrice returns the sale price when it undercuts the list price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price) {
		return p.SalePrice
	}
	return p.Price
}

// SetPrices updates list and sale price. A zero sale price disables the sale.
func (p *Product) SetPrices(price, salePrice decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if salePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	old := p.EffectivePrice()
	p.Price = price
	p.SalePrice = salePrice
	p.touch()
	if !old.Equal(p.EffectivePrice()) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, old))
	}
	return nil
}

// Restock adds quantity to the stock counter
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	p.TotalStock += quantity
	p.touch()
	return nil
}

// DecrementStock removes quantity from the stock counter.
// It fails with INSUFFICIENT_STOCK instead of going negative.
func (p *Product) DecrementStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}
	if p.TotalStock < quantity {
		return shared.ErrInsufficientStock
	}
	p.TotalStock -= quantity
	p.touch()
	p.AddDomainEvent(NewStockDecrementedEvent(p, quantity))
	return nil
}

// HasStock reports whether at least quantity units are on hand
func (p *Product) HasStock(quantity int) bool {
	return p.TotalStock >= quantity
}

// Snapshot returns the denormalized view embedded in guest cart items
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductID:  p.ID,
		Title:      p.Title,
		Image:      p.Image,
		Price:      p.Price,
		SalePrice:  p.SalePrice,
		TotalStock: p.TotalStock,
	}
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
}

// ProductSnapshot is a point-in-time copy of the fields a storefront shows next to a cart line
type ProductSnapshot struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Title      string          `json:"title"`
	Image      string          `json:"image,omitempty"`
	Price      decimal.Decimal `json:"price"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	TotalStock int             `json:"total_stock"`
}

// EffectivePrice mirrors Product.EffectivePrice for the snapshot values
func (s ProductSnapshot) EffectivePrice() decimal.Decimal {
	if s.SalePrice.IsPositive() && s.SalePrice.LessThan(s.Price) {
		return s.SalePrice
	}
	return s.Price
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
