package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/persistence/models"
)

// newTestDB opens an in-memory sqlite database with every table migrated.
// A single connection keeps the in-memory database shared across transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(title, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines map[uuid.UUID]int) *cart.Cart {
	t.Helper()
	c, err := cart.NewCart(userID)
	require.NoError(t, err)
	for id, qty := range lines {
		require.NoError(t, c.AddItem(id, qty))
	}
	require.NoError(t, NewGormCartRepository(db).Save(context.Background(), c))
	return c
}

func newTestOrder(t *testing.T, userID, cartID uuid.UUID, lines ...order.LineSnapshot) *order.Order {
	t.Helper()
	o, err := order.PlaceOrder(order.PlaceOrderParams{
		UserID:   userID,
		CartID:   cartID,
		Customer: order.Recipient{Email: "ada@example.com", Name: "Ada"},
		Lines:    lines,
		Address: order.AddressInfo{
			Address: "12 Harbour Road",
			City:    "Colombo",
			Pincode: "00300",
			Phone:   "+94 77 000 0000",
		},
		Schedule: order.DeliverySchedule{
			Date:     time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
			TimeSlot: "09:00-12:00",
		},
		PaymentMethod: "paypal",
	})
	require.NoError(t, err)
	return o
}

func lineFor(p *catalog.Product, qty int) order.LineSnapshot {
	return order.LineSnapshot{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.EffectivePrice(),
		Quantity:  qty,
	}
}

func newMockProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Linen Shirt", decimal.RequireFromString("29.99"), 10)
	require.NoError(t, err)
	return p
}
