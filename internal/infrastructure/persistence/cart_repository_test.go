package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

func TestGormCartRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	c, err := cart.NewCart(userID)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(first, 2))
	require.NoError(t, c.AddItem(second, 1))
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, first, got.Items[0].ProductID())
	assert.Equal(t, 2, got.Items[0].Quantity())
	assert.Equal(t, second, got.Items[1].ProductID())

	require.NoError(t, got.AddItem(first, 3))
	require.NoError(t, got.RemoveItem(second))
	require.NoError(t, repo.Save(ctx, got))

	reloaded, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 5, reloaded.Items[0].Quantity())
	assert.Equal(t, got.Version, reloaded.Version)
}

func TestGormCartRepository_StaleSave(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	c := seedCart(t, db, userID, map[uuid.UUID]int{uuid.New(): 1})

	a, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	b, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, a.AddItem(uuid.New(), 1))
	require.NoError(t, repo.Save(ctx, a))

	require.NoError(t, b.AddItem(uuid.New(), 4))
	err = repo.Save(ctx, b)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestGormCartRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	c := seedCart(t, db, userID, map[uuid.UUID]int{uuid.New(): 1, uuid.New(): 2})

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err := repo.FindByUserID(ctx, userID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var orphans int64
	require.NoError(t, db.Table("cart_items").Where("cart_id = ?", c.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	assert.NoError(t, repo.Delete(ctx, c.ID), "deleting a missing cart is not an error")
}
