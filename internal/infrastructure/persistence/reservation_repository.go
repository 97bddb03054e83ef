package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/persistence/models"
)

// GormReservationRepository implements catalog.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// SaveBatch inserts reservations
func (r *GormReservationRepository) SaveBatch(ctx context.Context, reservations []*catalog.StockReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	rows := make([]*models.StockReservationModel, len(reservations))
	for i, res := range reservations {
		rows[i] = models.StockReservationModelFromDomain(res)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindActiveByOrder returns the active reservations of an order
func (r *GormReservationRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]catalog.StockReservation, error) {
	var rows []models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, string(catalog.ReservationStatusActive)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.StockReservation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

type reservedSum struct {
	ProductID uuid.UUID
	Total     int
}

// SumActiveByProducts returns the reserved quantity per product for unexpired active reservations
func (r *GormReservationRepository) SumActiveByProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var sums []reservedSum
	if err := r.db.WithContext(ctx).
		Model(&models.StockReservationModel{}).
		Select("product_id, SUM(quantity) AS total").
		Where("product_id IN ? AND status = ? AND expires_at > ?", productIDs, string(catalog.ReservationStatusActive), now.UTC()).
		Group("product_id").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	for _, s := range sums {
		out[s.ProductID] = s.Total
	}
	return out, nil
}

// ResolveByOrder moves every active reservation of the order to status
func (r *GormReservationRepository) ResolveByOrder(ctx context.Context, orderID uuid.UUID, status catalog.ReservationStatus) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.StockReservationModel{}).
		Where("order_id = ? AND status = ?", orderID, string(catalog.ReservationStatusActive)).
		Updates(map[string]interface{}{
			"status":      string(status),
			"resolved_at": now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

// Ensure GormReservationRepository implements catalog.ReservationRepository
var _ catalog.ReservationRepository = (*GormReservationRepository)(nil)
