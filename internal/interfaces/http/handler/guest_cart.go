package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/middleware"
)

const guestTokenHeader = middleware.GuestTokenHeader

// GuestCartHandler serves the anonymous cart keyed by the X-Guest-Token header
type GuestCartHandler struct {
	BaseHandler
	guests GuestCartService
}

// NewGuestCartHandler creates a new GuestCartHandler
func NewGuestCartHandler(guests GuestCartService) *GuestCartHandler {
	return &GuestCartHandler{guests: guests}
}

// Get godoc
// @Summary      Get a guest cart
// @Tags         guest-cart
// @Produce      json
// @Param        X-Guest-Token header string true "Guest token"
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Router       /guest-cart [get]
func (h *GuestCartHandler) Get(c *gin.Context) {
	view, err := h.guests.Get(c.Request.Context(), c.GetHeader(guestTokenHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem godoc
// @Summary      Add a product to a guest cart
// @Description  A request without X-Guest-Token starts a new guest cart; the token is returned in the same header.
// @Tags         guest-cart
// @Accept       json
// @Produce      json
// @Param        X-Guest-Token header string false "Guest token"
// @Param        request body cartapp.AddItemRequest true "Line"
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /guest-cart/items [post]
func (h *GuestCartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	token := c.GetHeader(guestTokenHeader)
	if token == "" {
		token = uuid.NewString()
	}
	view, err := h.guests.AddItem(c.Request.Context(), token, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header(guestTokenHeader, token)
	h.Success(c, view)
}

// UpdateQuantity godoc
// @Summary      Set a guest cart line quantity
// @Tags         guest-cart
// @Accept       json
// @Produce      json
// @Param        X-Guest-Token header string true "Guest token"
// @Param        productId path string true "Product ID" format(uuid)
// @Param        request body cartapp.UpdateQuantityRequest true "Quantity"
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /guest-cart/items/{productId} [put]
func (h *GuestCartHandler) UpdateQuantity(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	var req cartapp.UpdateQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.guests.UpdateQuantity(c.Request.Context(), c.GetHeader(guestTokenHeader), productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem godoc
// @Summary      Remove a guest cart line
// @Tags         guest-cart
// @Produce      json
// @Param        X-Guest-Token header string true "Guest token"
// @Param        productId path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[cartapp.CartView]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /guest-cart/items/{productId} [delete]
func (h *GuestCartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	view, err := h.guests.RemoveItem(c.Request.Context(), c.GetHeader(guestTokenHeader), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear godoc
// @Summary      Delete a guest cart
// @Tags         guest-cart
// @Param        X-Guest-Token header string true "Guest token"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Router       /guest-cart [delete]
func (h *GuestCartHandler) Clear(c *gin.Context) {
	if err := h.guests.Clear(c.Request.Context(), c.GetHeader(guestTokenHeader)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
