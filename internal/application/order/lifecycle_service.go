package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// LifecycleConfig tunes checkout and capture
type LifecycleConfig struct {
	// PendingTTL is how long an unpaid order may wait for capture
	PendingTTL time.Duration
	// ReservationEnabled holds stock for pending orders
	ReservationEnabled bool
	// Currency is used when checkout does not name one
	Currency string
	// DeliveryPolicy gates purchase_date and preferred_delivery_time
	DeliveryPolicy order.DeliveryPolicy
}

// DefaultLifecycleConfig returns a 30 minute pending window with reservations on
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		PendingTTL:         30 * time.Minute,
		ReservationEnabled: true,
		Currency:           order.DefaultCurrency,
		DeliveryPolicy:     order.DefaultDeliveryPolicy(),
	}
}

// CartInvalidator drops cached copies of a user's cart
type CartInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// LifecycleService drives an order from checkout through capture and fulfilment
type LifecycleService struct {
	txScope         TransactionScope
	orderRepo       order.OrderRepository
	cartRepo        cart.CartRepository
	productRepo     catalog.ProductRepository
	reservationRepo catalog.ReservationRepository
	gateway         payment.Gateway
	carts           CartInvalidator
	publisher       shared.EventPublisher
	config          LifecycleConfig
	now             func() time.Time
	logger          *zap.Logger
}

// NewLifecycleService creates a new LifecycleService. carts may be nil.
func NewLifecycleService(
	txScope TransactionScope,
	orderRepo order.OrderRepository,
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	reservationRepo catalog.ReservationRepository,
	gateway payment.Gateway,
	carts CartInvalidator,
	config LifecycleConfig,
	logger *zap.Logger,
) *LifecycleService {
	if config.PendingTTL <= 0 {
		config.PendingTTL = DefaultLifecycleConfig().PendingTTL
	}
	if config.Currency == "" {
		config.Currency = order.DefaultCurrency
	}
	if config.DeliveryPolicy.MinLeadDays == 0 && len(config.DeliveryPolicy.TimeSlots) == 0 {
		config.DeliveryPolicy = order.DefaultDeliveryPolicy()
	}
	return &LifecycleService{
		txScope:         txScope,
		orderRepo:       orderRepo,
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		reservationRepo: reservationRepo,
		gateway:         gateway,
		carts:           carts,
		config:          config,
		now:             time.Now,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Checkout snapshots the caller's cart into a pending order and opens a payment
// authorization for it. A gateway failure leaves nothing behind.
func (s *LifecycleService) Checkout(ctx context.Context, userID uuid.UUID, customer order.Recipient, req CheckoutRequest) (*CheckoutResponse, error) {
	now := s.now()

	schedule, err := req.schedule(s.config.DeliveryPolicy.Location)
	if err != nil {
		return nil, err
	}
	if err := s.config.DeliveryPolicy.Validate(schedule, now); err != nil {
		return nil, err
	}
	address := req.Address.toDomain()
	if err := address.Validate(); err != nil {
		return nil, err
	}

	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if c == nil || c.IsEmpty() {
		return nil, shared.NewValidationError(map[string]string{"cart_items": "cart is empty"})
	}

	lines, err := s.snapshotLines(ctx, c, now)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.Currency
	}
	o, err := order.PlaceOrder(order.PlaceOrderParams{
		UserID:        userID,
		CartID:        c.ID,
		Customer:      customer,
		Lines:         lines,
		Address:       address,
		Schedule:      schedule,
		PaymentMethod: req.PaymentMethod,
		Currency:      currency,
	})
	if err != nil {
		return nil, err
	}

	auth, err := s.gateway.CreateAuthorization(ctx, authorizationRequest(o, req))
	if err != nil {
		s.logger.Warn("payment authorization failed",
			zap.String("user_id", userID.String()),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
		)
		return nil, shared.NewExternalServiceError(s.gateway.Name(), err)
	}

	if err := o.AttachPaymentIntent(auth.IntentID, auth.ApprovalURL, now.Add(s.config.PendingTTL)); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		if !s.config.ReservationEnabled {
			return nil
		}
		reservations := make([]*catalog.StockReservation, 0, len(lines))
		for _, l := range lines {
			r, err := catalog.NewStockReservation(o.ID, l.ProductID, l.Quantity, *o.ExpiresAt)
			if err != nil {
				return err
			}
			reservations = append(reservations, r)
		}
		return repos.ReservationRepo().SaveBatch(ctx, reservations)
	})
	if err != nil {
		s.logger.Error("order could not be stored after payment authorization",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_id", o.PaymentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)),
	)
	s.publishEvents(ctx, o)

	return &CheckoutResponse{
		OrderID:     o.ID,
		ApprovalURL: o.ApprovalURL,
		PaymentID:   o.PaymentID,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		ExpiresAt:   o.ExpiresAt,
	}, nil
}

// Capture settles the payment of a pending order and, in one transaction,
// decrements stock, deletes the cart and confirms the order. Capturing an order
// already paid through the same payment returns it unchanged.
func (s *LifecycleService) Capture(ctx context.Context, userID uuid.UUID, req CaptureRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, req.OrderID)
	if err != nil {
		return nil, orderNotFound(err, req.OrderID)
	}

	if o.IsCapturedWith(req.PaymentID) {
		s.logger.Info("capture replay ignored",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_id", req.PaymentID),
		)
		resp := ToOrderResponse(o)
		return &resp, nil
	}
	if !o.IsPending() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot capture order in %s/%s", o.OrderStatus, o.PaymentStatus))
	}
	// the reaper may not have run yet; an expired window is never settled
	if o.IsExpired(s.now()) {
		s.logger.Info("capture rejected after payment window",
			zap.String("order_id", o.ID.String()),
			zap.Timep("expires_at", o.ExpiresAt),
		)
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Order payment window has expired")
	}
	if req.PaymentID != o.PaymentID {
		return nil, shared.NewValidationError(map[string]string{"payment_id": "does not match the order"})
	}
	if req.PayerID == "" {
		return nil, shared.NewValidationError(map[string]string{"payer_id": "is required"})
	}

	lines := o.CartItems()
	if err := s.ensureProducts(ctx, lines); err != nil {
		return nil, err
	}

	if err := s.gateway.CaptureAuthorization(ctx, req.PaymentID, req.PayerID); err != nil {
		s.logger.Warn("payment capture failed",
			zap.String("order_id", o.ID.String()),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
		)
		return nil, shared.NewExternalServiceError(s.gateway.Name(), err)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, l := range lines {
			if err := repos.ProductRepo().DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return stockError(err, l)
			}
		}
		if o.CartID != uuid.Nil {
			if err := repos.CartRepo().Delete(ctx, o.CartID); err != nil {
				return err
			}
		}
		if err := o.MarkPaid(req.PaymentID, req.PayerID); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if s.config.ReservationEnabled {
			if _, err := repos.ReservationRepo().ResolveByOrder(ctx, o.ID, catalog.ReservationStatusConsumed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		o.ClearDomainEvents()
		s.logger.Error("payment captured but order was not confirmed",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_id", req.PaymentID),
			zap.Error(err),
		)
		return nil, err
	}

	if s.carts != nil {
		s.carts.Invalidate(ctx, o.UserID)
	}
	s.logger.Info("order captured",
		zap.String("order_id", o.ID.String()),
		zap.String("payment_id", o.PaymentID),
		zap.Int("units", o.TotalQuantity()),
	)
	s.publishEvents(ctx, o)

	resp := ToOrderResponse(o)
	return &resp, nil
}

// UpdateStatus applies an administrative status change
func (s *LifecycleService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.OrderStatus(req.OrderStatus)
	if !target.IsValid() {
		return nil, shared.NewValidationError(map[string]string{"order_status": "unknown status"})
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderNotFound(err, orderID)
	}
	wasPending := o.IsPending()
	if err := o.ChangeStatus(target); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if wasPending && s.config.ReservationEnabled {
			_, err := repos.ReservationRepo().ResolveByOrder(ctx, o.ID, catalog.ReservationStatusReleased)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", o.ID.String()),
		zap.String("status", o.OrderStatus.String()),
	)
	s.publishEvents(ctx, o)

	resp := ToOrderResponse(o)
	return &resp, nil
}

// CancelPending lets the owner abandon an unpaid order, releasing its reservations
func (s *LifecycleService) CancelPending(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, orderNotFound(err, orderID)
	}
	if err := o.Cancel(); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if s.config.ReservationEnabled {
			_, err := repos.ReservationRepo().ResolveByOrder(ctx, o.ID, catalog.ReservationStatusReleased)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetOrder returns an order owned by userID
func (s *LifecycleService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, orderNotFound(err, orderID)
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetOrderAdmin returns any order
func (s *LifecycleService) GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderNotFound(err, orderID)
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListOrders lists the caller's orders, newest first
func (s *LifecycleService) ListOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]OrderResponse, int64, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	countFilter := filter
	countFilter.Filters = make(map[string]interface{}, len(filter.Filters)+1)
	for k, v := range filter.Filters {
		countFilter.Filters[k] = v
	}
	countFilter.Filters[order.FilterUserID] = userID
	total, err := s.orderRepo.Count(ctx, countFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// ListAllOrders lists orders across users for administrators
func (s *LifecycleService) ListAllOrders(ctx context.Context, filter shared.Filter) ([]OrderResponse, int64, error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// snapshotLines freezes the cart lines at live prices and checks availability
func (s *LifecycleService) snapshotLines(ctx context.Context, c *cart.Cart, now time.Time) ([]order.LineSnapshot, error) {
	ids := cart.ProductIDs(c.Items)
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	reserved := map[uuid.UUID]int{}
	if s.config.ReservationEnabled {
		if reserved, err = s.reservationRepo.SumActiveByProducts(ctx, ids, now); err != nil {
			return nil, err
		}
	}

	lines := make([]order.LineSnapshot, 0, len(c.Items))
	for _, it := range c.Items {
		p, ok := byID[it.ProductRef]
		if !ok {
			return nil, shared.NewNotFoundError("Product", it.ProductRef.String())
		}
		if available := p.TotalStock - reserved[p.ID]; available < it.Qty {
			return nil, insufficientStock(p.ID, p.Title, it.Qty, available)
		}
		lines = append(lines, order.LineSnapshot{
			ProductID: p.ID,
			Title:     p.Title,
			Image:     p.Image,
			Price:     p.EffectivePrice(),
			Quantity:  it.Qty,
		})
	}
	return lines, nil
}

// ensureProducts fails with NotFound before any money moves
func (s *LifecycleService) ensureProducts(ctx context.Context, lines []order.LineSnapshot) error {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return shared.NewNotFoundError("Product", id.String())
		}
	}
	return nil
}

func (s *LifecycleService) publishEvents(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}

func authorizationRequest(o *order.Order, req CheckoutRequest) *payment.AuthorizationRequest {
	lines := o.CartItems()
	items := make([]payment.AuthorizationItem, len(lines))
	for i, l := range lines {
		items[i] = payment.AuthorizationItem{
			ProductID: l.ProductID,
			Name:      l.Title,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		}
	}
	return &payment.AuthorizationRequest{
		Reference: o.ID.String(),
		Items:     items,
		Total:     o.TotalAmount,
		Currency:  o.Currency,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	}
}

func orderNotFound(err error, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Order", id.String())
	}
	return err
}

func stockError(err error, l order.LineSnapshot) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return shared.NewNotFoundError("Product", l.ProductID.String())
	case errors.Is(err, shared.ErrInsufficientStock):
		return insufficientStock(l.ProductID, l.Title, l.Quantity, -1)
	default:
		return err
	}
}

func insufficientStock(productID uuid.UUID, title string, requested, available int) error {
	e := shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("Not enough stock for %s", title))
	e.Details = map[string]string{
		"product_id": productID.String(),
		"requested":  strconv.Itoa(requested),
	}
	if available >= 0 {
		e.Details["available"] = strconv.Itoa(available)
	}
	return e
}
