package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *GormOrderRepository) first(query *gorm.DB) (*order.Order, error) {
	var model models.OrderModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.first(r.preloaded(ctx).Where("id = ?", id))
}

// FindByIDForUser finds an order owned by userID
func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	return r.first(r.preloaded(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// FindByPaymentID finds an order by its external payment intent ID
func (r *GormOrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	return r.first(r.preloaded(ctx).Where("payment_id = ?", paymentID))
}

// FindByUser lists the orders of a user
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	query := r.applyFilter(r.preloaded(ctx).Model(&models.OrderModel{}), filter).Where("user_id = ?", userID)
	return r.list(query, filter)
}

// FindAll lists orders across users
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	query := r.applyFilter(r.preloaded(ctx).Model(&models.OrderModel{}), filter)
	return r.list(query, filter)
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter).Count(&count).Error
	return count, err
}

// FindExpiredPending returns pending/pending orders whose expiry is at or before now
func (r *GormOrderRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.preloaded(ctx).
		Where("order_status = ? AND payment_status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			string(order.OrderStatusPending), string(order.PaymentStatusPending), now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// Save creates an order with its lines
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error
}

// SaveWithLock updates the mutable order columns with optimistic locking.
// Lines are a frozen snapshot and are never rewritten.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		res := tx.Model(&models.OrderModel{}).Where("id = ?", o.ID).Select("version").Scan(&currentVersion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != o.Version {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, "The order has been modified by another request")
		}

		now := time.Now()
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"order_status":      string(o.OrderStatus),
				"payment_status":    string(o.PaymentStatus),
				"payment_id":        o.PaymentID,
				"payer_id":          o.PayerID,
				"approval_url":      o.ApprovalURL,
				"receiving_date":    o.ReceivingDate,
				"order_update_date": o.OrderUpdateDate,
				"expires_at":        utcPtr(o.ExpiresAt),
				"version":           currentVersion + 1,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, "The order has been modified by another request")
		}

		o.Version = currentVersion + 1
		o.UpdatedAt = now
		return nil
	})
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters[order.FilterOrderStatus].(string); ok && v != "" {
		query = query.Where("order_status = ?", v)
	}
	if v, ok := filter.Filters[order.FilterPaymentStatus].(string); ok && v != "" {
		query = query.Where("payment_status = ?", v)
	}
	if v, ok := filter.Filters[order.FilterUserID].(uuid.UUID); ok && v != uuid.Nil {
		query = query.Where("user_id = ?", v)
	}
	return query
}

func (r *GormOrderRepository) list(query *gorm.DB, filter shared.Filter) ([]order.Order, error) {
	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.OrderModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toDomainOrders(rows []models.OrderModel) []order.Order {
	out := make([]order.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormOrderRepository implements order.OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
