package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cartapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/cart"
	catalogapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/catalog"
	orderapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/auth"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/dto"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func testIdentity(role string) auth.Identity {
	return auth.Identity{UserID: uuid.New(), Email: "jane@example.com", Name: "Jane", Role: role}
}

// newTestEngine returns an engine that authenticates every request as id.
// A nil id leaves requests anonymous.
func newTestEngine(id *auth.Identity) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if id != nil {
		identity := *id
		r.Use(func(c *gin.Context) {
			c.Set(middleware.JWTIdentityKey, identity)
			c.Set(middleware.JWTUserIDKey, identity.UserID.String())
			c.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter shared.Filter) ([]catalogapp.ProductResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) UpdatePrices(ctx context.Context, id uuid.UUID, req catalogapp.UpdatePricesRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) Restock(ctx context.Context, id uuid.UUID, req catalogapp.RestockRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

// MockCartService is a mock implementation of CartService and CartMerger
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (*cartapp.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartapp.CartView), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) AddItem(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, userID, req))
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, userID, productID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *MockCartService) Merge(ctx context.Context, userID uuid.UUID, req cartapp.MergeRequest) (*cartapp.MergeResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartapp.MergeResult), args.Error(1)
}

// MockGuestCartService is a mock implementation of GuestCartService
type MockGuestCartService struct {
	mock.Mock
}

func (m *MockGuestCartService) view(args mock.Arguments) (*cartapp.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartapp.CartView), args.Error(1)
}

func (m *MockGuestCartService) Get(ctx context.Context, token string) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, token))
}

func (m *MockGuestCartService) AddItem(ctx context.Context, token string, req cartapp.AddItemRequest) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, token, req))
}

func (m *MockGuestCartService) UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, token, productID, quantity))
}

func (m *MockGuestCartService) RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*cartapp.CartView, error) {
	return m.view(m.Called(ctx, token, productID))
}

func (m *MockGuestCartService) Clear(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*orderapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) list(args mock.Arguments) ([]orderapp.OrderResponse, int64, error) {
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]orderapp.OrderResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uuid.UUID, customer order.Recipient, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error) {
	args := m.Called(ctx, userID, customer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) Capture(ctx context.Context, userID uuid.UUID, req orderapp.CaptureRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, userID, req))
}

func (m *MockOrderService) CancelPending(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, userID, orderID))
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, userID, orderID))
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]orderapp.OrderResponse, int64, error) {
	return m.list(m.Called(ctx, userID, filter))
}

func (m *MockOrderService) GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) ListAllOrders(ctx context.Context, filter shared.Filter) ([]orderapp.OrderResponse, int64, error) {
	return m.list(m.Called(ctx, filter))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}
