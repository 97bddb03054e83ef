package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// ProductService handles the catalog operations the storefront needs:
// product reads for shoppers and seeding or restocking for admins.
type ProductService struct {
	productRepo catalog.ProductRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Title, req.Price, req.TotalStock)
	if err != nil {
		return nil, err
	}
	product.Description = strings.TrimSpace(req.Description)
	product.Image = req.Image
	product.Category = req.Category
	product.Brand = req.Brand

	if req.SalePrice != nil {
		if err := product.SetPrices(req.Price, *req.SalePrice); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, filter shared.Filter) ([]ProductResponse, error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

// UpdatePrices changes list and sale price. Open carts see the new price on
// their next read, placed orders keep their frozen lines.
func (s *ProductService) UpdatePrices(ctx context.Context, id uuid.UUID, req UpdatePricesRequest) (*ProductResponse, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetPrices(req.Price, req.SalePrice); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Restock adds units to a product's stock counter. The increment is applied
// in the database so captures running at the same time are not overwritten.
func (s *ProductService) Restock(ctx context.Context, id uuid.UUID, req RestockRequest) (*ProductResponse, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Restock(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.productRepo.IncrementStock(ctx, id, req.Quantity); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Product", id.String())
		}
		return nil, err
	}
	if product, err = s.find(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("product restocked",
		zap.String("product_id", id.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("total_stock", product.TotalStock),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) find(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Product", id.String())
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) publishEvents(ctx context.Context, p *catalog.Product) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events",
			zap.String("product_id", p.ID.String()),
			zap.Error(err),
		)
	}
}
