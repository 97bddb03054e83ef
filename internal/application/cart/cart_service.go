package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// CartService manages the server-side cart of authenticated users
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	cache       cart.CartCache
	group       singleflight.Group
	logger      *zap.Logger
}

// NewCartService creates a new CartService. cache may be nil.
func NewCartService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	cache cart.CartCache,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cache,
		logger:      logger,
	}
}

// GetCart returns the user's cart with live prices. A user without a cart gets an empty view.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &CartView{Items: []CartLineView{}}, nil
	}
	return s.view(ctx, c)
}

// AddItem adds quantity of a product, creating the cart on first use
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartView, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Product", req.ProductID.String())
		}
		return nil, err
	}

	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if c, err = cart.NewCart(userID); err != nil {
			return nil, err
		}
	}

	if err := c.AddItem(req.ProductID, req.Quantity); err != nil {
		return nil, err
	}
	return s.saveAndView(ctx, c)
}

// UpdateQuantity sets a line quantity; zero or less removes the line
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.cartNotFound(err, userID)
	}
	if err := c.UpdateQuantity(productID, quantity); err != nil {
		return nil, err
	}
	return s.saveAndView(ctx, c)
}

// RemoveItem removes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.cartNotFound(err, userID)
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	return s.saveAndView(ctx, c)
}

// Invalidate drops the cached cart of a user
func (s *CartService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate cart cache",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// loadCart reads through the cache; concurrent misses for one user share a single load.
// Returns (nil, nil) when the user has no cart.
func (s *CartService) loadCart(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("cart cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		// the generation must be read before the repository
		var generation int64
		fill := s.cache != nil
		if fill {
			var err error
			if generation, err = s.cache.Generation(ctx, userID); err != nil {
				s.logger.Warn("cart cache generation read failed", zap.String("user_id", userID.String()), zap.Error(err))
				fill = false
			}
		}

		c, err := s.cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return (*cart.Cart)(nil), nil
			}
			return nil, err
		}
		if fill {
			stored, err := s.cache.Fill(ctx, c, generation)
			switch {
			case err != nil:
				s.logger.Warn("cart cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
			case !stored:
				s.logger.Debug("cart changed while loading, not cached", zap.String("user_id", userID.String()))
			}
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return v.(*cart.Cart), nil
}

func (s *CartService) saveAndView(ctx context.Context, c *cart.Cart) (*CartView, error) {
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, c.UserID)
	return s.view(ctx, c)
}

func (s *CartService) view(ctx context.Context, c *cart.Cart) (*CartView, error) {
	products, err := s.productRepo.FindByIDs(ctx, cart.ProductIDs(c.Items))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return buildServerView(c, byID), nil
}

func (s *CartService) cartNotFound(err error, userID uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Cart", userID.String())
	}
	return err
}
