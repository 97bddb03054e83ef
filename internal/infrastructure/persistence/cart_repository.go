package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/persistence/models"
)

// GormCartRepository implements cart.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByUserID finds the cart of a user
func (r *GormCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.preloaded(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a cart by its ID
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.preloaded(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates the cart or replaces its lines. Existing carts are written
// with a version check; a stale copy yields ErrConcurrencyConflict.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		res := tx.Model(&models.CartModel{}).Where("id = ?", c.ID).Select("version").Scan(&currentVersion)
		if res.Error != nil {
			return res.Error
		}

		model := models.CartModelFromDomain(c)
		if res.RowsAffected == 0 {
			if err := tx.Omit("Items").Create(model).Error; err != nil {
				return err
			}
		} else {
			if currentVersion != c.Version {
				return shared.ErrConcurrencyConflict
			}
			now := time.Now()
			result := tx.Model(&models.CartModel{}).
				Where("id = ? AND version = ?", c.ID, currentVersion).
				Updates(map[string]interface{}{
					"version":    currentVersion + 1,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
			c.Version = currentVersion + 1
			c.UpdatedAt = now
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a cart and its lines. Deleting a missing cart is not an error.
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.CartModel{}).Error
	})
}

// Ensure GormCartRepository implements cart.CartRepository
var _ cart.CartRepository = (*GormCartRepository)(nil)
