package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// GuestCartService exposes the guest cart store keyed by an opaque guest token
type GuestCartService struct {
	storage     cart.GuestCartStorage
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewGuestCartService creates a new GuestCartService
func NewGuestCartService(storage cart.GuestCartStorage, productRepo catalog.ProductRepository, logger *zap.Logger) *GuestCartService {
	return &GuestCartService{
		storage:     storage,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Get returns the guest cart for token
func (s *GuestCartService) Get(ctx context.Context, token string) (*CartView, error) {
	store, err := cart.OpenGuestCart(ctx, s.storage, token)
	if err != nil {
		return nil, err
	}
	return buildGuestView(store.Items()), nil
}

// AddItem embeds a snapshot of the product and adds it to the guest cart.
// Stock is not enforced here; capture is the authoritative check.
func (s *GuestCartService) AddItem(ctx context.Context, token string, req AddItemRequest) (*CartView, error) {
	store, err := cart.OpenGuestCart(ctx, s.storage, token)
	if err != nil {
		return nil, err
	}
	p, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Product", req.ProductID.String())
		}
		return nil, err
	}
	if err := store.AddItem(ctx, p.Snapshot(), req.Quantity); err != nil {
		return nil, err
	}
	return buildGuestView(store.Items()), nil
}

// UpdateQuantity sets a line quantity; zero or less removes the line
func (s *GuestCartService) UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*CartView, error) {
	store, err := cart.OpenGuestCart(ctx, s.storage, token)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateQuantity(ctx, productID, quantity); err != nil {
		return nil, err
	}
	return buildGuestView(store.Items()), nil
}

// RemoveItem removes a line
func (s *GuestCartService) RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*CartView, error) {
	store, err := cart.OpenGuestCart(ctx, s.storage, token)
	if err != nil {
		return nil, err
	}
	if err := store.RemoveItem(ctx, productID); err != nil {
		return nil, err
	}
	return buildGuestView(store.Items()), nil
}

// Clear empties the guest cart and deletes its storage
func (s *GuestCartService) Clear(ctx context.Context, token string) error {
	store, err := cart.OpenGuestCart(ctx, s.storage, token)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Debug("guest cart cleared")
	return nil
}
