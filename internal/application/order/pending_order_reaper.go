package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// DefaultReapBatchSize bounds one reaper pass
const DefaultReapBatchSize = 100

// PendingOrderReaper expires unpaid orders whose payment window has passed
// and releases the stock they reserved.
type PendingOrderReaper struct {
	txScope   TransactionScope
	orderRepo order.OrderRepository
	publisher shared.EventPublisher
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// NewPendingOrderReaper creates a new PendingOrderReaper
func NewPendingOrderReaper(
	txScope TransactionScope,
	orderRepo order.OrderRepository,
	batchSize int,
	logger *zap.Logger,
) *PendingOrderReaper {
	if batchSize <= 0 {
		batchSize = DefaultReapBatchSize
	}
	return &PendingOrderReaper{
		txScope:   txScope,
		orderRepo: orderRepo,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (r *PendingOrderReaper) SetEventPublisher(publisher shared.EventPublisher) {
	r.publisher = publisher
}

// ReapStats contains statistics about one reaper pass
type ReapStats struct {
	TotalExpired int       `json:"total_expired"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ReapExpired expires one batch of overdue pending orders
func (r *PendingOrderReaper) ReapExpired(ctx context.Context) (*ReapStats, error) {
	now := r.now()
	stats := &ReapStats{ProcessedAt: now}

	orders, err := r.orderRepo.FindExpiredPending(ctx, now, r.batchSize)
	if err != nil {
		r.logger.Error("Failed to find expired pending orders", zap.Error(err))
		return nil, err
	}

	stats.TotalExpired = len(orders)
	if stats.TotalExpired == 0 {
		r.logger.Debug("No expired pending orders found")
		return stats, nil
	}

	for i := range orders {
		o := &orders[i]
		if err := r.expire(ctx, o, now); err != nil {
			r.logger.Error("Failed to expire pending order",
				zap.String("order_id", o.ID.String()),
				zap.String("payment_id", o.PaymentID),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Succeeded++
	}

	r.logger.Info("Completed pending order expiry",
		zap.Int("total", stats.TotalExpired),
		zap.Int("expired", stats.Succeeded),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (r *PendingOrderReaper) expire(ctx context.Context, o *order.Order, now time.Time) error {
	if err := o.Expire(now); err != nil {
		return err
	}
	err := r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		_, err := repos.ReservationRepo().ResolveByOrder(ctx, o.ID, catalog.ReservationStatusReleased)
		return err
	})
	if err != nil {
		o.ClearDomainEvents()
		return err
	}

	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, events...); err != nil {
			r.logger.Warn("Failed to publish OrderExpired event",
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
