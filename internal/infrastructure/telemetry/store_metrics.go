package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// StoreMetrics turns storefront domain events into counters and histograms.
// It is subscribed to the event bus and never fails a dispatch.
type StoreMetrics struct {
	ordersPlaced    *Counter
	ordersConfirmed *Counter
	ordersExpired   *Counter
	statusChanges   *Counter
	orderValue      *Histogram
	cartsMerged     *Counter
	mergedLines     *Counter
	unitsSold       *Counter
}

// NewStoreMetrics creates the storefront instruments on meter
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	m := &StoreMetrics{}
	var err error
	counters := []struct {
		dst               **Counter
		name, description string
		unit              string
	}{
		{&m.ordersPlaced, "orders_placed_total", "Orders created in pending state", "{order}"},
		{&m.ordersConfirmed, "orders_confirmed_total", "Orders whose payment was captured", "{order}"},
		{&m.ordersExpired, "orders_expired_total", "Pending orders expired by the reaper", "{order}"},
		{&m.statusChanges, "order_status_changes_total", "Fulfilment status transitions", "{transition}"},
		{&m.cartsMerged, "carts_merged_total", "Guest carts merged into server carts", "{merge}"},
		{&m.mergedLines, "cart_merge_lines_total", "Cart lines touched by merges", "{line}"},
		{&m.unitsSold, "stock_units_decremented_total", "Stock units decremented at capture", "{unit}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.description, c.unit); err != nil {
			return nil, err
		}
	}
	if m.orderValue, err = NewHistogram(meter, HistogramOpts{
		Name:        "order_value",
		Description: "Total amount of confirmed orders",
		Unit:        "{currency}",
		Boundaries:  OrderValueBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns the event types StoreMetrics records
func (m *StoreMetrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderConfirmed,
		order.EventTypeOrderExpired,
		order.EventTypeOrderStatusChanged,
		cart.EventTypeCartMerged,
		catalog.EventTypeStockDecremented,
	}
}

// Handle records event
func (m *StoreMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		m.ordersPlaced.Inc(ctx)
	case *order.OrderConfirmedEvent:
		m.ordersConfirmed.Inc(ctx)
		m.orderValue.Record(ctx, e.TotalAmount.InexactFloat64())
	case *order.OrderExpiredEvent:
		m.ordersExpired.Inc(ctx)
	case *order.OrderStatusChangedEvent:
		m.statusChanges.Inc(ctx,
			AttrFromStatus.String(string(e.OldStatus)),
			AttrOrderStatus.String(string(e.NewStatus)))
	case *cart.CartMergedEvent:
		m.cartsMerged.Inc(ctx)
		m.mergedLines.Add(ctx, int64(e.Inserted), AttrMergeKind.String("inserted"))
		m.mergedLines.Add(ctx, int64(e.Increased), AttrMergeKind.String("increased"))
	case *catalog.StockDecrementedEvent:
		m.unitsSold.Add(ctx, int64(e.Quantity))
	}
	return nil
}
