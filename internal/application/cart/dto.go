package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

// CartLineView is a cart line with display data
type CartLineView struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Title      string          `json:"title"`
	Image      string          `json:"image,omitempty"`
	Price      decimal.Decimal `json:"price"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalStock int             `json:"total_stock"`
	Available  bool            `json:"available"`
}

// CartView is the response shape for both server and guest carts
type CartView struct {
	ID            *uuid.UUID      `json:"id,omitempty"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	Items         []CartLineView  `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Signature     string          `json:"signature"`
}

// AddItemRequest adds a product to a cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// UpdateQuantityRequest sets a line quantity; zero or less removes the line
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// MergeItemInput is one guest line sent to the merge endpoint.
// Product is the embedded snapshot the guest cart holds, if any.
type MergeItemInput struct {
	ProductID uuid.UUID                `json:"product_id" binding:"required"`
	Quantity  int                      `json:"quantity" binding:"required"`
	Product   *catalog.ProductSnapshot `json:"product,omitempty"`
}

// MergeRequest carries the guest cart to fold into the caller's cart.
// When Items is empty and GuestToken is set, the stored guest cart is used.
type MergeRequest struct {
	Items      []MergeItemInput `json:"items" binding:"omitempty,dive"`
	GuestToken string           `json:"guest_token"`
}

// MergeResult reports what a merge did
type MergeResult struct {
	Cart      *CartView   `json:"cart"`
	Signature string      `json:"signature"`
	Duplicate bool        `json:"duplicate"`
	Inserted  int         `json:"inserted"`
	Increased int         `json:"increased"`
	Skipped   []uuid.UUID `json:"skipped,omitempty"`
}

// toItems converts merge input to cart items. Lines with an embedded
// snapshot become LocalItems, the rest RemoteItems.
func (r MergeRequest) toItems() []cart.Item {
	items := make([]cart.Item, 0, len(r.Items))
	for _, in := range r.Items {
		if in.Product != nil && in.Product.ProductID == in.ProductID {
			items = append(items, cart.NewLocalItem(*in.Product, in.Quantity))
			continue
		}
		items = append(items, cart.NewRemoteItem(in.ProductID, in.Quantity))
	}
	return items
}

// buildServerView resolves live prices for a server cart. Products missing
// from the catalog are kept in the view but marked unavailable.
func buildServerView(c *cart.Cart, products map[uuid.UUID]catalog.Product) *CartView {
	view := &CartView{
		Items:       make([]CartLineView, 0, len(c.Items)),
		TotalAmount: decimal.Zero,
		Signature:   c.Signature(),
	}
	if c.ID != uuid.Nil {
		id, userID := c.ID, c.UserID
		view.ID = &id
		view.UserID = &userID
	}
	for _, it := range c.Items {
		line := CartLineView{ProductID: it.ProductRef, Quantity: it.Qty, Subtotal: decimal.Zero}
		if p, ok := products[it.ProductRef]; ok {
			line.Title = p.Title
			line.Image = p.Image
			line.Price = p.Price
			line.SalePrice = p.SalePrice
			line.TotalStock = p.TotalStock
			line.Available = p.TotalStock >= it.Qty
			line.Subtotal = p.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Qty)))
			view.TotalAmount = view.TotalAmount.Add(line.Subtotal)
		}
		view.TotalQuantity += it.Qty
		view.Items = append(view.Items, line)
	}
	return view
}

// buildGuestView renders a guest cart from its embedded snapshots
func buildGuestView(items []cart.LocalItem) *CartView {
	view := &CartView{
		Items:       make([]CartLineView, 0, len(items)),
		TotalAmount: decimal.Zero,
		Signature:   cart.Signature(items),
	}
	for _, it := range items {
		price, _ := it.UnitPriceSnapshot()
		subtotal := price.Mul(decimal.NewFromInt(int64(it.Qty)))
		view.Items = append(view.Items, CartLineView{
			ProductID:  it.ProductID(),
			Title:      it.Product.Title,
			Image:      it.Product.Image,
			Price:      it.Product.Price,
			SalePrice:  it.Product.SalePrice,
			Quantity:   it.Qty,
			Subtotal:   subtotal,
			TotalStock: it.Product.TotalStock,
			Available:  it.Product.TotalStock >= it.Qty,
		})
		view.TotalQuantity += it.Qty
		view.TotalAmount = view.TotalAmount.Add(subtotal)
	}
	return view
}
