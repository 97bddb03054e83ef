package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

func TestPendingOrderReaper_ReapExpired(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	p1 := f.product(t, "Linen Shirt", "29.99", 10)
	f.cartWith(t, map[uuid.UUID]int{p1.ID: 2})
	placed := f.checkout(t, "PAY-1")

	publisher := &recordingPublisher{}
	reaper := NewPendingOrderReaper(f.store, f.store.OrderRepo(), 10, zap.NewNop())
	reaper.SetEventPublisher(publisher)

	t.Run("nothing is due yet", func(t *testing.T) {
		reaper.now = func() time.Time { return testNow.Add(10 * time.Minute) }
		stats, err := reaper.ReapExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalExpired)
		assert.Equal(t, order.OrderStatusPending, f.store.order(placed.OrderID).OrderStatus)
	})

	t.Run("overdue order expires and frees stock", func(t *testing.T) {
		reaper.now = func() time.Time { return testNow.Add(31 * time.Minute) }
		stats, err := reaper.ReapExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalExpired)
		assert.Equal(t, 1, stats.Succeeded)
		assert.Equal(t, 0, stats.Failed)

		stored := f.store.order(placed.OrderID)
		assert.Equal(t, order.OrderStatusExpired, stored.OrderStatus)
		assert.Equal(t, order.PaymentStatusFailed, stored.PaymentStatus)
		for _, r := range f.store.reservationsOf(placed.OrderID) {
			assert.Equal(t, catalog.ReservationStatusReleased, r.Status)
		}
		assert.Equal(t, []string{order.EventTypeOrderExpired}, publisher.types())

		p, _ := f.store.product(p1.ID)
		assert.Equal(t, 10, p.TotalStock)
	})

	t.Run("expired order can no longer be captured", func(t *testing.T) {
		_, err := f.service.Capture(ctx, f.userID, CaptureRequest{OrderID: placed.OrderID, PaymentID: "PAY-1", PayerID: "PAYER-1"})
		require.Error(t, err)
		f.gateway.AssertNotCalled(t, "CaptureAuthorization", mock.Anything, "PAY-1", "PAYER-1")
	})

	t.Run("second pass is a no-op", func(t *testing.T) {
		stats, err := reaper.ReapExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalExpired)
	})
}
