package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// NotificationHandler emails customers when an order is confirmed or changes status.
// Delivery is best effort: notifier failures are logged and never returned.
type NotificationHandler struct {
	orderRepo order.OrderRepository
	notifier  order.Notifier
	logger    *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(orderRepo order.OrderRepository, notifier order.Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		orderRepo: orderRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{order.EventTypeOrderConfirmed, order.EventTypeOrderStatusChanged}
}

// Handle dispatches the matching notification
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderConfirmedEvent:
		o, ok := h.load(ctx, e)
		if !ok {
			return nil
		}
		h.swallow(e, h.notifier.SendOrderConfirmation(ctx, e.Customer, o))
	case *order.OrderStatusChangedEvent:
		if e.NewStatus == e.OldStatus {
			return nil
		}
		o, ok := h.load(ctx, e)
		if !ok {
			return nil
		}
		h.swallow(e, h.notifier.SendOrderStatusUpdate(ctx, e.Customer, o, e.NewStatus))
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

func (h *NotificationHandler) load(ctx context.Context, event shared.DomainEvent) (*order.Order, bool) {
	o, err := h.orderRepo.FindByID(ctx, event.AggregateID())
	if err != nil {
		h.logger.Warn("notification skipped, order not loaded",
			zap.String("event_type", event.EventType()),
			zap.String("order_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return nil, false
	}
	return o, true
}

func (h *NotificationHandler) swallow(event shared.DomainEvent, err error) {
	if err == nil {
		h.logger.Debug("order notification sent",
			zap.String("event_type", event.EventType()),
			zap.String("order_id", event.AggregateID().String()),
		)
		return
	}
	h.logger.Warn("order notification failed",
		zap.String("event_type", event.EventType()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Error(shared.NewNotificationError(err)),
	)
}
