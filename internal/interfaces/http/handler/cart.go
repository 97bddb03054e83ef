package handler

import (
	"github.com/gin-gonic/gin"

	cartapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/cart"
)

// CartHandler serves the authenticated user's server cart
type CartHandler struct {
	BaseHandler
	carts  CartService
	merger CartMerger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartService, merger CartMerger) *CartHandler {
	return &CartHandler{carts: carts, merger: merger}
}

// Get godoc
// @Summary      Get the current user's cart
// @Description  Lines carry live prices; a product that no longer exists is flagged unavailable
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	view, err := h.carts.GetCart(c.Request.Context(), id.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem godoc
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Line"
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	var req cartapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), id.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateQuantity godoc
// @Summary      Set a line quantity
// @Description  A quantity of zero or less removes the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Param        request body cartapp.UpdateQuantityRequest true "Quantity"
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items/{productId} [put]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	var req cartapp.UpdateQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.carts.UpdateQuantity(c.Request.Context(), id.UserID, productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem godoc
// @Summary      Remove a line from the cart
// @Tags         cart
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	view, err := h.carts.RemoveItem(c.Request.Context(), id.UserID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Merge godoc
// @Summary      Merge a guest cart into the server cart
// @Description  Additive and idempotent: the same guest cart merged twice within the dedup window is applied once.
// @Description  When guest_token is set and items is empty, the items are read from the guest cart store.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.MergeRequest true "Guest items"
// @Success      200 {object} APIResponse[cartapp.MergeResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/merge [post]
func (h *CartHandler) Merge(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	var req cartapp.MergeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.GuestToken == "" {
		req.GuestToken = c.GetHeader(guestTokenHeader)
	}
	result, err := h.merger.Merge(c.Request.Context(), id.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
