package handler

import (
	"context"

	"github.com/google/uuid"

	cartapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/cart"
	catalogapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/catalog"
	orderapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// ProductService is the catalog surface the HTTP layer uses
type ProductService interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, filter shared.Filter) ([]catalogapp.ProductResponse, error)
	UpdatePrices(ctx context.Context, id uuid.UUID, req catalogapp.UpdatePricesRequest) (*catalogapp.ProductResponse, error)
	Restock(ctx context.Context, id uuid.UUID, req catalogapp.RestockRequest) (*catalogapp.ProductResponse, error)
}

// CartService is the server cart surface
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cartapp.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartapp.CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartapp.CartView, error)
}

// CartMerger folds a guest cart into the server cart
type CartMerger interface {
	Merge(ctx context.Context, userID uuid.UUID, req cartapp.MergeRequest) (*cartapp.MergeResult, error)
}

// GuestCartService is the guest cart surface, keyed by the guest token
type GuestCartService interface {
	Get(ctx context.Context, token string) (*cartapp.CartView, error)
	AddItem(ctx context.Context, token string, req cartapp.AddItemRequest) (*cartapp.CartView, error)
	UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*cartapp.CartView, error)
	RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*cartapp.CartView, error)
	Clear(ctx context.Context, token string) error
}

// OrderService is the order lifecycle surface
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, customer order.Recipient, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error)
	Capture(ctx context.Context, userID uuid.UUID, req orderapp.CaptureRequest) (*orderapp.OrderResponse, error)
	CancelPending(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]orderapp.OrderResponse, int64, error)
	GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	ListAllOrders(ctx context.Context, filter shared.Filter) ([]orderapp.OrderResponse, int64, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error)
}

var (
	_ ProductService   = (*catalogapp.ProductService)(nil)
	_ CartService      = (*cartapp.CartService)(nil)
	_ CartMerger       = (*cartapp.MergeService)(nil)
	_ GuestCartService = (*cartapp.GuestCartService)(nil)
	_ OrderService     = (*orderapp.LifecycleService)(nil)
)
