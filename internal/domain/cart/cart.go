package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// MaxLineQuantity caps a single cart line
const MaxLineQuantity = 999

// Cart is the server-side cart of one user. It is created lazily on the
// first add and deleted when an order placed from it is captured.
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Items  []RemoteItem
}

// NewCart creates an empty cart owned by userID
func NewCart(userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]RemoteItem, 0),
	}, nil
}

// AddItem adds quantity of a product, incrementing an existing line
func (c *Cart) AddItem(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}

	if idx := c.indexOf(productID); idx >= 0 {
		next := c.Items[idx].Qty + quantity
		if next > MaxLineQuantity {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity exceeds the per-line limit")
		}
		c.Items[idx].Qty = next
	} else {
		if quantity > MaxLineQuantity {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity exceeds the per-line limit")
		}
		c.Items = append(c.Items, NewRemoteItem(productID, quantity))
	}
	c.touch()
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.NewNotFoundError("Cart item", productID.String())
	}
	if quantity <= 0 {
		c.removeAt(idx)
		c.touch()
		return nil
	}
	if quantity > MaxLineQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity exceeds the per-line limit")
	}
	c.Items[idx].Qty = quantity
	c.touch()
	return nil
}

// RemoveItem removes a line
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.NewNotFoundError("Cart item", productID.String())
	}
	c.removeAt(idx)
	c.touch()
	return nil
}

// MergeResult summarizes a merge
type MergeResult struct {
	Inserted  int
	Increased int
}

// Merge folds items into the cart. Quantities of products already in the
// cart add up; new products are appended. Lines with quantity < 1 are ignored
// and each line is capped at MaxLineQuantity.
func (c *Cart) Merge(items []Item) MergeResult {
	var res MergeResult
	for _, it := range items {
		if it.Quantity() < 1 || it.ProductID() == uuid.Nil {
			continue
		}
		if idx := c.indexOf(it.ProductID()); idx >= 0 {
			c.Items[idx].Qty = min(c.Items[idx].Qty+it.Quantity(), MaxLineQuantity)
			res.Increased++
			continue
		}
		c.Items = append(c.Items, NewRemoteItem(it.ProductID(), min(it.Quantity(), MaxLineQuantity)))
		res.Inserted++
	}
	if res.Inserted+res.Increased > 0 {
		c.touch()
		c.AddDomainEvent(NewCartMergedEvent(c, res))
	}
	return res
}

// Find returns the line for productID
func (c *Cart) Find(productID uuid.UUID) (RemoteItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return RemoteItem{}, false
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity returns the number of units across all lines
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Qty
	}
	return total
}

// Signature returns the content signature of the cart
func (c *Cart) Signature() string {
	return Signature(c.Items)
}

// Lines returns the cart lines through the Item interface
func (c *Cart) Lines() []Item {
	out := make([]Item, len(c.Items))
	for i, it := range c.Items {
		out[i] = it
	}
	return out
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, it := range c.Items {
		if it.ProductRef == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
