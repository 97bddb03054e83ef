package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

// CreateProductRequest adds a product to the catalog
type CreateProductRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	Image       string           `json:"image" binding:"omitempty,url"`
	Category    string           `json:"category" binding:"max=100"`
	Brand       string           `json:"brand" binding:"max=100"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	TotalStock  int              `json:"total_stock" binding:"min=0"`
}

// UpdatePricesRequest changes list and sale price
type UpdatePricesRequest struct {
	Price     decimal.Decimal `json:"price"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

// RestockRequest adds units to the stock counter
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ProductResponse is the API view of a product
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Image          string          `json:"image,omitempty"`
	Category       string          `json:"category,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Price          decimal.Decimal `json:"price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	TotalStock     int             `json:"total_stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain product to its response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Image:          p.Image,
		Category:       p.Category,
		Brand:          p.Brand,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		TotalStock:     p.TotalStock,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
