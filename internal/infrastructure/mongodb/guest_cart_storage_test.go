package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestGuestCartStorage_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	productID := uuid.New()

	mt.Run("load of unknown token is empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		items, err := NewGuestCartStorage(mt.Coll, time.Hour).Load(ctx, "guest-1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	mt.Run("load decodes items", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "guest-1"},
			{Key: "items", Value: bson.A{bson.D{
				{Key: "product_id", Value: productID.String()},
				{Key: "title", Value: "Linen Shirt"},
				{Key: "price", Value: "29.99"},
				{Key: "sale_price", Value: "24.99"},
				{Key: "total_stock", Value: 10},
				{Key: "quantity", Value: 2},
			}}},
			{Key: "updated_at", Value: time.Now()},
		}))

		items, err := NewGuestCartStorage(mt.Coll, time.Hour).Load(ctx, "guest-1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, productID, items[0].ProductID())
		assert.Equal(t, 2, items[0].Quantity())
		assert.True(t, items[0].Product.EffectivePrice().Equal(decimal.RequireFromString("24.99")))
	})

	mt.Run("corrupt price is an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "guest-1"},
			{Key: "items", Value: bson.A{bson.D{
				{Key: "product_id", Value: productID.String()},
				{Key: "price", Value: "twelve"},
				{Key: "quantity", Value: 1},
			}}},
		}))

		_, err := NewGuestCartStorage(mt.Coll, time.Hour).Load(ctx, "guest-1")
		assert.Error(t, err)
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "guest-1"}}}},
		))

		snap := catalog.ProductSnapshot{ProductID: productID, Title: "Linen Shirt", Price: decimal.RequireFromString("29.99")}
		err := NewGuestCartStorage(mt.Coll, time.Hour).Save(ctx, "guest-1", []cart.LocalItem{cart.NewLocalItem(snap, 2)})
		require.NoError(t, err)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "update", started.CommandName)
	})

	mt.Run("saving an empty list deletes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := NewGuestCartStorage(mt.Coll, time.Hour).Save(ctx, "guest-1", nil)
		require.NoError(t, err)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "delete", started.CommandName)
	})

	mt.Run("server error surfaces", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		err := NewGuestCartStorage(mt.Coll, time.Hour).Delete(ctx, "guest-1")
		assert.Error(t, err)
	})
}
