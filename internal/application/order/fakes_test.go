package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// memStore keeps every aggregate the order lifecycle touches. Execute snapshots
// the state and restores it when fn fails, which gives tests rollback semantics.
type memStore struct {
	mu           sync.Mutex
	products     map[uuid.UUID]catalog.Product
	carts        map[uuid.UUID]cart.Cart
	orders       map[uuid.UUID]order.Order
	reservations []catalog.StockReservation
	decrements   int
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]catalog.Product),
		carts:    make(map[uuid.UUID]cart.Cart),
		orders:   make(map[uuid.UUID]order.Order),
	}
}

type memSnapshot struct {
	products     map[uuid.UUID]catalog.Product
	carts        map[uuid.UUID]cart.Cart
	orders       map[uuid.UUID]order.Order
	reservations []catalog.StockReservation
	decrements   int
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		products:     make(map[uuid.UUID]catalog.Product, len(m.products)),
		carts:        make(map[uuid.UUID]cart.Cart, len(m.carts)),
		orders:       make(map[uuid.UUID]order.Order, len(m.orders)),
		reservations: append([]catalog.StockReservation(nil), m.reservations...),
		decrements:   m.decrements,
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.carts {
		v.Items = append([]cart.RemoteItem(nil), v.Items...)
		s.carts[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = s.products
	m.carts = s.carts
	m.orders = s.orders
	m.reservations = s.reservations
	m.decrements = s.decrements
}

// Execute implements TransactionScope
func (m *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) ProductRepo() catalog.ProductRepository         { return memProducts{m} }
func (m *memStore) CartRepo() cart.CartRepository                  { return memCarts{m} }
func (m *memStore) OrderRepo() order.OrderRepository               { return memOrders{m} }
func (m *memStore) ReservationRepo() catalog.ReservationRepository { return memReservations{m} }

func (m *memStore) addProduct(p *catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
}

func (m *memStore) product(id uuid.UUID) (catalog.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

func (m *memStore) order(id uuid.UUID) order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memStore) reservationsOf(orderID uuid.UUID) []catalog.StockReservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.StockReservation
	for _, r := range m.reservations {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out
}

type memProducts struct{ m *memStore }

func (r memProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.m.product(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.m.product(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.m.products))
	for _, p := range r.m.products {
		out = append(out, p)
	}
	return out, nil
}

func (r memProducts) Save(_ context.Context, p *catalog.Product) error {
	r.m.addProduct(p)
	return nil
}

func (r memProducts) IncrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.TotalStock += quantity
	r.m.products[id] = p
	return nil
}

func (r memProducts) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	if err := p.DecrementStock(quantity); err != nil {
		return err
	}
	p.ClearDomainEvents()
	r.m.products[id] = p
	r.m.decrements++
	return nil
}

type memCarts struct{ m *memStore }

func (r memCarts) FindByUserID(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.carts {
		if c.UserID == userID {
			c.Items = append([]cart.RemoteItem(nil), c.Items...)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memCarts) FindByID(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.carts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r memCarts) Save(_ context.Context, c *cart.Cart) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *c
	cp.Items = append([]cart.RemoteItem(nil), c.Items...)
	r.m.carts[c.ID] = cp
	return nil
}

func (r memCarts) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.carts, id)
	return nil
}

type memOrders struct{ m *memStore }

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r memOrders) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	o, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByPaymentID(_ context.Context, paymentID string) (*order.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, o := range r.m.orders {
		if o.PaymentID == paymentID {
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memOrders) list(match func(order.Order) bool) []order.Order {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []order.Order
	for _, o := range r.m.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memOrders) FindByUser(_ context.Context, userID uuid.UUID, _ shared.Filter) ([]order.Order, error) {
	return r.list(func(o order.Order) bool { return o.UserID == userID }), nil
}

func (r memOrders) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, error) {
	return r.list(func(order.Order) bool { return true }), nil
}

func (r memOrders) Count(_ context.Context, filter shared.Filter) (int64, error) {
	userID, scoped := filter.Filters[order.FilterUserID].(uuid.UUID)
	return int64(len(r.list(func(o order.Order) bool { return !scoped || o.UserID == userID }))), nil
}

func (r memOrders) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]order.Order, error) {
	out := r.list(func(o order.Order) bool { return o.IsExpired(now) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memOrders) Save(_ context.Context, o *order.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[o.ID] = *o
	return nil
}

func (r memOrders) SaveWithLock(_ context.Context, o *order.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.orders[o.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != o.Version {
		return shared.ErrConcurrencyConflict
	}
	o.Version++
	r.m.orders[o.ID] = *o
	return nil
}

type memReservations struct{ m *memStore }

func (r memReservations) SaveBatch(_ context.Context, reservations []*catalog.StockReservation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, res := range reservations {
		r.m.reservations = append(r.m.reservations, *res)
	}
	return nil
}

func (r memReservations) FindActiveByOrder(_ context.Context, orderID uuid.UUID) ([]catalog.StockReservation, error) {
	var out []catalog.StockReservation
	for _, res := range r.m.reservationsOf(orderID) {
		if res.IsActive() {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r memReservations) SumActiveByProducts(_ context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[uuid.UUID]int)
	for _, res := range r.m.reservations {
		if _, ok := wanted[res.ProductID]; ok && res.IsActive() && !res.IsExpired(now) {
			out[res.ProductID] += res.Quantity
		}
	}
	return out, nil
}

func (r memReservations) ResolveByOrder(_ context.Context, orderID uuid.UUID, status catalog.ReservationStatus) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for i := range r.m.reservations {
		res := &r.m.reservations[i]
		if res.OrderID != orderID || !res.IsActive() {
			continue
		}
		var err error
		if status == catalog.ReservationStatusConsumed {
			err = res.Consume()
		} else {
			err = res.Release()
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateAuthorization(ctx context.Context, req *payment.AuthorizationRequest) (*payment.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Authorization), args.Error(1)
}

func (m *MockGateway) CaptureAuthorization(ctx context.Context, paymentID, payerID string) error {
	args := m.Called(ctx, paymentID, payerID)
	return args.Error(0)
}

// MockNotifier implements order.Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderConfirmation(ctx context.Context, to order.Recipient, o *order.Order) error {
	args := m.Called(ctx, to, o)
	return args.Error(0)
}

func (m *MockNotifier) SendOrderStatusUpdate(ctx context.Context, to order.Recipient, o *order.Order, newStatus order.OrderStatus) error {
	args := m.Called(ctx, to, o, newStatus)
	return args.Error(0)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context, uuid.UUID) { c.calls++ }
