package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	orderapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/logger"
)

// OrderHandler serves checkout, capture and order reads for the caller
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// scopeOrder tags the request context with orderID, so service, SQL and
// access log lines for this request can be found by order.
func scopeOrder(c *gin.Context, orderID uuid.UUID) {
	c.Request = c.Request.WithContext(logger.WithOrderID(c.Request.Context(), orderID.String()))
}

// Checkout godoc
// @Summary      Place an order from the current cart
// @Description  Creates a pending order and a payment authorization. The client redirects the buyer to approval_url.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CheckoutRequest true "Checkout"
// @Success      201 {object} APIResponse[orderapp.CheckoutResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	var req orderapp.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.Checkout(c.Request.Context(), id.UserID, order.Recipient{Email: id.Email, Name: id.Name}, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	scopeOrder(c, resp.OrderID)
	logger.L(c.Request.Context()).Info("Order placed",
		zap.String("payment_id", resp.PaymentID),
		zap.String("total", resp.TotalAmount.StringFixed(2)),
	)
	h.Created(c, resp)
}

// Capture godoc
// @Summary      Capture an approved payment
// @Description  Decrements stock, deletes the originating cart and confirms the order in one transaction.
// @Description  Capturing an already confirmed order returns it unchanged.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CaptureRequest true "Capture"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/capture [post]
func (h *OrderHandler) Capture(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	var req orderapp.CaptureRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scopeOrder(c, req.OrderID)
	resp, err := h.orders.Capture(c.Request.Context(), id.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.L(c.Request.Context()).Info("Payment captured", zap.String("payment_id", req.PaymentID))
	h.Success(c, resp)
}

// Cancel godoc
// @Summary      Cancel a pending order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scopeOrder(c, orderID)
	resp, err := h.orders.CancelPending(c.Request.Context(), id.UserID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scopeOrder(c, orderID)
	resp, err := h.orders.GetOrder(c.Request.Context(), id.UserID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Order status"
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	filter, req, ok := h.bindList(c)
	if !ok {
		return
	}
	if req.Status != "" {
		filter.Filters[order.FilterOrderStatus] = req.Status
	}
	orders, total, err := h.orders.ListOrders(c.Request.Context(), id.UserID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AdminList godoc
// @Summary      List all orders
// @Tags         admin-orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Order status"
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	filter, req, ok := h.bindList(c)
	if !ok {
		return
	}
	if req.Status != "" {
		filter.Filters[order.FilterOrderStatus] = req.Status
	}
	orders, total, err := h.orders.ListAllOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AdminGet godoc
// @Summary      Get any order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) AdminGet(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	scopeOrder(c, orderID)
	resp, err := h.orders.GetOrderAdmin(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatus godoc
// @Summary      Change an order's status
// @Description  Only transitions allowed by the order state machine are accepted.
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateStatusRequest true "Target status"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	scopeOrder(c, orderID)
	resp, err := h.orders.UpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
