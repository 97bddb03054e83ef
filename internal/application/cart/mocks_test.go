package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// MockCartRepository implements cart.CartRepository for testing
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCartCache implements cart.CartCache for testing
type MockCartCache struct {
	mock.Mock
}

func (m *MockCartCache) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartCache) Generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartCache) Fill(ctx context.Context, c *cart.Cart, generation int64) (bool, error) {
	args := m.Called(ctx, c, generation)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// memCartRepo is an in-memory cart.CartRepository
type memCartRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*cart.Cart
	saves  int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{byUser: make(map[uuid.UUID]*cart.Cart)}
}

func (r *memCartRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	cp.Items = append([]cart.RemoteItem(nil), c.Items...)
	return &cp, nil
}

func (r *memCartRepo) FindByID(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUser {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCartRepo) Save(_ context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.Items = append([]cart.RemoteItem(nil), c.Items...)
	r.byUser[c.UserID] = &cp
	r.saves++
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.byUser {
		if c.ID == id {
			delete(r.byUser, k)
		}
	}
	return nil
}

// memProductRepo is an in-memory catalog.ProductRepository
type memProductRepo struct {
	products map[uuid.UUID]*catalog.Product
	failIDs  error
}

func newMemProductRepo(products ...*catalog.Product) *memProductRepo {
	r := &memProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if r.failIDs != nil {
		return nil, r.failIDs
	}
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) IncrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	return p.Restock(quantity)
}

func (r *memProductRepo) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	return p.DecrementStock(quantity)
}

// memIdempotencyStore is an in-memory shared.IdempotencyStore
type memIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]time.Time
	released int
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]time.Time)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.keys[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	s.keys[key] = time.Now().Add(ttl)
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.keys[key]
	return ok && time.Now().Before(exp), nil
}

func (s *memIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released++
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// memGuestStorage is an in-memory cart.GuestCartStorage
type memGuestStorage struct {
	data map[string][]cart.LocalItem
}

func newMemGuestStorage() *memGuestStorage {
	return &memGuestStorage{data: make(map[string][]cart.LocalItem)}
}

func (s *memGuestStorage) Load(_ context.Context, token string) ([]cart.LocalItem, error) {
	return append([]cart.LocalItem(nil), s.data[token]...), nil
}

func (s *memGuestStorage) Save(_ context.Context, token string, items []cart.LocalItem) error {
	s.data[token] = append([]cart.LocalItem(nil), items...)
	return nil
}

func (s *memGuestStorage) Delete(_ context.Context, token string) error {
	delete(s.data, token)
	return nil
}
