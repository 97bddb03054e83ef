package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

func newTestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := NewCart(uuid.New())
	require.NoError(t, err)
	return c
}

func TestNewCart(t *testing.T) {
	c := newTestCart(t)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1, c.GetVersion())

	_, err := NewCart(uuid.Nil)
	assert.Error(t, err)
}

func TestCart_AddItem(t *testing.T) {
	p1 := uuid.New()

	t.Run("appends then increments", func(t *testing.T) {
		c := newTestCart(t)
		require.NoError(t, c.AddItem(p1, 1))
		require.NoError(t, c.AddItem(p1, 2))

		require.Len(t, c.Items, 1)
		assert.Equal(t, 3, c.Items[0].Qty)
	})

	t.Run("rejects quantity below one", func(t *testing.T) {
		c := newTestCart(t)
		err := c.AddItem(p1, 0)
		require.Error(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("rejects quantity over the line cap", func(t *testing.T) {
		c := newTestCart(t)
		require.NoError(t, c.AddItem(p1, MaxLineQuantity))
		assert.Error(t, c.AddItem(p1, 1))
	})
}

func TestCart_UpdateQuantity(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		quantity  int
		wantLines int
	}{
		{"sets positive quantity", 5, 2},
		{"zero removes the line", 0, 1},
		{"negative removes the line", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCart(t)
			require.NoError(t, c.AddItem(p1, 2))
			require.NoError(t, c.AddItem(p2, 1))

			require.NoError(t, c.UpdateQuantity(p1, tt.quantity))
			assert.Len(t, c.Items, tt.wantLines)
			for _, it := range c.Items {
				assert.GreaterOrEqual(t, it.Qty, 1)
			}
		})
	}

	t.Run("unknown product is not found", func(t *testing.T) {
		c := newTestCart(t)
		err := c.UpdateQuantity(uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCart_RemoveItem(t *testing.T) {
	p1 := uuid.New()
	c := newTestCart(t)
	require.NoError(t, c.AddItem(p1, 2))

	require.NoError(t, c.RemoveItem(p1))
	assert.True(t, c.IsEmpty())
	assert.ErrorIs(t, c.RemoveItem(p1), shared.ErrNotFound)
}

func TestCart_Merge(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	snap := func(id uuid.UUID) catalog.ProductSnapshot {
		return catalog.ProductSnapshot{ProductID: id, Title: "x", Price: decimal.NewFromInt(1)}
	}

	t.Run("into empty cart", func(t *testing.T) {
		c := newTestCart(t)
		res := c.Merge([]Item{NewLocalItem(snap(p1), 2)})

		assert.Equal(t, MergeResult{Inserted: 1}, res)
		require.Len(t, c.Items, 1)
		assert.Equal(t, p1, c.Items[0].ProductRef)
		assert.Equal(t, 2, c.Items[0].Qty)
	})

	t.Run("quantities add for shared products", func(t *testing.T) {
		c := newTestCart(t)
		require.NoError(t, c.AddItem(p1, 1))

		res := c.Merge([]Item{NewLocalItem(snap(p1), 3), NewLocalItem(snap(p2), 1)})

		assert.Equal(t, MergeResult{Inserted: 1, Increased: 1}, res)
		line, ok := c.Find(p1)
		require.True(t, ok)
		assert.Equal(t, 4, line.Qty)
		assert.Equal(t, 5, c.TotalQuantity())
	})

	t.Run("ignores invalid lines and emits nothing when unchanged", func(t *testing.T) {
		c := newTestCart(t)
		res := c.Merge([]Item{NewRemoteItem(p1, 0), NewRemoteItem(uuid.Nil, 2)})

		assert.Equal(t, MergeResult{}, res)
		assert.True(t, c.IsEmpty())
		assert.Empty(t, c.GetDomainEvents())
	})

	t.Run("emits CartMerged", func(t *testing.T) {
		c := newTestCart(t)
		c.Merge([]Item{NewRemoteItem(p1, 1)})

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCartMerged, events[0].EventType())
	})
}

func TestSignature(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	a := Signature([]Item{NewRemoteItem(p1, 1), NewRemoteItem(p2, 2)})
	b := Signature([]Item{NewRemoteItem(p2, 2), NewRemoteItem(p1, 1)})
	c := Signature([]Item{NewRemoteItem(p1, 2), NewRemoteItem(p2, 2)})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "", Signature([]RemoteItem{}))
}

func TestItemVariants(t *testing.T) {
	id := uuid.New()
	local := NewLocalItem(catalog.ProductSnapshot{
		ProductID: id,
		Price:     decimal.RequireFromString("29.99"),
		SalePrice: decimal.RequireFromString("19.99"),
	}, 2)
	remote := NewRemoteItem(id, 2)

	price, ok := local.UnitPriceSnapshot()
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("19.99")))

	_, ok = remote.UnitPriceSnapshot()
	assert.False(t, ok)

	assert.Equal(t, local.ProductID(), remote.ProductID())
	assert.Equal(t, Signature([]Item{local}), Signature([]Item{remote}))
}
