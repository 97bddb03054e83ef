package order

import (
	"context"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// TransactionScope provides transactional access to the repositories touched by
// the order lifecycle. Everything done inside Execute commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories sharing one transaction
type TransactionalRepositories interface {
	// ProductRepo owns the stock ledger
	ProductRepo() catalog.ProductRepository
	// CartRepo is used to delete the cart an order was placed from
	CartRepo() cart.CartRepository
	// OrderRepo persists the order aggregate
	OrderRepo() order.OrderRepository
	// ReservationRepo holds stock reserved by pending orders
	ReservationRepo() catalog.ReservationRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Useful in tests and for stores without transaction support.
type NoOpTransactionScope struct {
	productRepo     catalog.ProductRepository
	cartRepo        cart.CartRepository
	orderRepo       order.OrderRepository
	reservationRepo catalog.ReservationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	cartRepo cart.CartRepository,
	orderRepo order.OrderRepository,
	reservationRepo catalog.ReservationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:     productRepo,
		cartRepo:        cartRepo,
		orderRepo:       orderRepo,
		reservationRepo: reservationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }

// CartRepo returns the cart repository.
func (s *NoOpTransactionScope) CartRepo() cart.CartRepository { return s.cartRepo }

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.OrderRepository { return s.orderRepo }

// ReservationRepo returns the reservation repository.
func (s *NoOpTransactionScope) ReservationRepo() catalog.ReservationRepository {
	return s.reservationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
