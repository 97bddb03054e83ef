package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

func TestStoreMetrics_RecordsOrderLifecycle(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewStoreMetrics(mp.Meter("store"))
	require.NoError(t, err)
	ctx := context.Background()
	orderID := uuid.New()

	require.NoError(t, m.Handle(ctx, &order.OrderPlacedEvent{OrderID: orderID}))
	require.NoError(t, m.Handle(ctx, &order.OrderPlacedEvent{OrderID: uuid.New()}))
	require.NoError(t, m.Handle(ctx, &order.OrderConfirmedEvent{OrderID: orderID, TotalAmount: decimal.NewFromInt(120)}))
	require.NoError(t, m.Handle(ctx, &order.OrderExpiredEvent{OrderID: uuid.New()}))
	require.NoError(t, m.Handle(ctx, &order.OrderStatusChangedEvent{
		OrderID:   orderID,
		OldStatus: order.OrderStatusConfirmed,
		NewStatus: order.OrderStatusInProcess,
	}))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["orders_placed_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["orders_confirmed_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["orders_expired_total"]))

	changes, ok := data["order_status_changes_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, changes.DataPoints, 1)
	to, _ := changes.DataPoints[0].Attributes.Value(AttrOrderStatus)
	from, _ := changes.DataPoints[0].Attributes.Value(AttrFromStatus)
	assert.Equal(t, "inProcess", to.AsString())
	assert.Equal(t, "confirmed", from.AsString())

	value, ok := data["order_value"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, value.DataPoints, 1)
	assert.Equal(t, 120.0, value.DataPoints[0].Sum)
}

func TestStoreMetrics_RecordsMergesAndStock(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewStoreMetrics(mp.Meter("store"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, &cart.CartMergedEvent{Inserted: 2, Increased: 1}))
	require.NoError(t, m.Handle(ctx, &catalog.StockDecrementedEvent{Quantity: 3, Remaining: 7}))
	require.NoError(t, m.Handle(ctx, &catalog.StockDecrementedEvent{Quantity: 2, Remaining: 5}))

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, data["carts_merged_total"]))
	assert.Equal(t, int64(3), sumOf(t, data["cart_merge_lines_total"]))
	assert.Equal(t, int64(5), sumOf(t, data["stock_units_decremented_total"]))

	lines := data["cart_merge_lines_total"].(metricdata.Sum[int64])
	byKind := map[string]int64{}
	for _, dp := range lines.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("cart.merge_kind"))
		byKind[kind.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"inserted": 2, "increased": 1}, byKind)
}

func TestStoreMetrics_IgnoresUnknownEvents(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewStoreMetrics(mp.Meter("store"))
	require.NoError(t, err)

	assert.NoError(t, m.Handle(context.Background(), &catalog.ProductCreatedEvent{}))
	assert.Empty(t, collect(t, reader))
}

func TestStoreMetrics_EventTypes(t *testing.T) {
	mp, _ := newTestMeter(t)
	m, err := NewStoreMetrics(mp.Meter("store"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderConfirmed,
		order.EventTypeOrderExpired,
		order.EventTypeOrderStatusChanged,
		cart.EventTypeCartMerged,
		catalog.EventTypeStockDecremented,
	}, m.EventTypes())
}
