package main

import (
	"context"
	"net/http"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	catalog  CatalogService
	notifier notifier
	log      *zap.Logger
}

func NewOrderHandler(orders repository.OrderRepository, users repository.UserRepository, svc CatalogService, n notifier, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		users:    users,
		catalog:  svc,
		notifier: n,
		log:      log,
	}
}

// PlaceOrder turns the caller's cart into an order
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req model.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	order, err := h.orders.PlaceOrder(ctx, currentUserID(c), req.AddressID)
	if err != nil {
		respondError(c, h.log, err, "Failed to place order")
		return
	}

	// stock levels are part of the cached pages
	h.catalog.Refresh(ctx)
	h.notify(ctx, model.NotificationOrderPlaced, order)

	c.JSON(http.StatusCreated, order.ToOrderResponse())
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve orders")
		return
	}

	response := make([]model.OrderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, orders[i].ToOrderResponse())
	}
	c.JSON(http.StatusOK, gin.H{"orders": response})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve order")
		return
	}
	c.JSON(http.StatusOK, order.ToOrderResponse())
}

// CancelOrder lets a customer cancel their own order before it ships
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := h.orders.GetOrder(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve order")
		return
	}

	h.transition(c, order.ID, model.OrderCancelled)
}

// UpdateStatus moves any order along its lifecycle (admin only)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req model.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	h.transition(c, c.Param("id"), req.Status)
}

func (h *OrderHandler) transition(c *gin.Context, orderID string, status model.OrderStatus) {
	ctx := c.Request.Context()
	order, err := h.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		respondError(c, h.log, err, "Failed to update order")
		return
	}

	kind := model.NotificationOrderStatusChanged
	if status == model.OrderCancelled {
		kind = model.NotificationOrderCancelled
		h.catalog.Refresh(ctx)
	}
	h.notify(ctx, kind, order)

	c.JSON(http.StatusOK, order.ToOrderResponse())
}

func (h *OrderHandler) notify(ctx context.Context, kind string, order *model.Order) {
	user, err := h.users.GetUserByID(ctx, order.UserID)
	if err != nil {
		h.log.Warn("Order owner lookup failed, skipping notification", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	h.notifier.send(ctx, model.NewOrderNotification(kind, user, order))
}
