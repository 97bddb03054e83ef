package cart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

// Item is a cart line as seen by merge and checkout logic.
// LocalItem and RemoteItem are its two variants.
type Item interface {
	ProductID() uuid.UUID
	Quantity() int
	// UnitPriceSnapshot returns the price captured with the item, if the item carries one
	UnitPriceSnapshot() (decimal.Decimal, bool)
}

// LocalItem is a guest-side line that embeds the product it refers to,
// so it can be shown without a catalog lookup.
type LocalItem struct {
	Product catalog.ProductSnapshot `json:"product"`
	Qty     int                     `json:"quantity"`
}

// NewLocalItem creates a guest cart line
func NewLocalItem(product catalog.ProductSnapshot, quantity int) LocalItem {
	return LocalItem{Product: product, Qty: quantity}
}

// ProductID implements Item
func (i LocalItem) ProductID() uuid.UUID { return i.Product.ProductID }

// Quantity implements Item
func (i LocalItem) Quantity() int { return i.Qty }

// UnitPriceSnapshot implements Item
func (i LocalItem) UnitPriceSnapshot() (decimal.Decimal, bool) {
	return i.Product.EffectivePrice(), true
}

// RemoteItem is a server-side line that references the product by id;
// its price is resolved live from the catalog.
type RemoteItem struct {
	ProductRef uuid.UUID `json:"product_id"`
	Qty        int       `json:"quantity"`
}

// NewRemoteItem creates a server cart line
func NewRemoteItem(productID uuid.UUID, quantity int) RemoteItem {
	return RemoteItem{ProductRef: productID, Qty: quantity}
}

// ProductID implements Item
func (i RemoteItem) ProductID() uuid.UUID { return i.ProductRef }

// Quantity implements Item
func (i RemoteItem) Quantity() int { return i.Qty }

// UnitPriceSnapshot implements Item. Remote items never carry a price.
func (i RemoteItem) UnitPriceSnapshot() (decimal.Decimal, bool) {
	return decimal.Zero, false
}

var (
	_ Item = LocalItem{}
	_ Item = RemoteItem{}
)

// Signature returns the content signature of a list of items:
// "productId:quantity" pairs sorted by product id and joined by "|".
// Two lists with the same lines in any order share a signature.
func Signature[T Item](items []T) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.ProductID().String()+":"+strconv.Itoa(it.Quantity()))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// ProductIDs returns the distinct product ids referenced by items, in first-seen order
func ProductIDs[T Item](items []T) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID()]; ok {
			continue
		}
		seen[it.ProductID()] = struct{}{}
		ids = append(ids, it.ProductID())
	}
	return ids
}
