package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// LogNotifier writes notifications to the application log.
// It is the local-run default and never fails.
type LogNotifier struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notifier"), now: time.Now}
}

// SendOrderConfirmation implements order.Notifier
func (n *LogNotifier) SendOrderConfirmation(_ context.Context, to order.Recipient, o *order.Order) error {
	n.log(confirmationMessage(to, o, n.now()))
	return nil
}

// SendOrderStatusUpdate implements order.Notifier
func (n *LogNotifier) SendOrderStatusUpdate(_ context.Context, to order.Recipient, o *order.Order, newStatus order.OrderStatus) error {
	n.log(statusUpdateMessage(to, o, newStatus, n.now()))
	return nil
}

func (n *LogNotifier) log(m Message) {
	n.logger.Info("order notification",
		zap.String("type", m.Type),
		zap.String("order_id", m.OrderID.String()),
		zap.String("to", m.To),
		zap.String("order_status", m.OrderStatus),
		zap.String("total", m.TotalAmount+" "+m.Currency),
		zap.Int("lines", len(m.Lines)),
	)
}

// Close implements Notifier
func (n *LogNotifier) Close() error {
	return nil
}
