package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/middleware"
	"github.com/flicky/medishop/internal/payment"
	"github.com/flicky/medishop/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	carts    *service.CartService
}

func NewCheckoutHandler(checkout *service.CheckoutService, carts *service.CartService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts}
}

type checkoutResponse struct {
	Order   dto.OrderResponse   `json:"order"`
	Notices []cart.Notification `json:"notices"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := &cart.Recorder{}
	store, err := h.carts.Open(c.Request.Context(), middleware.GetCartSession(c), rec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyer := service.Buyer{ID: middleware.GetUserID(c), Email: middleware.GetUserEmail(c)}
	order, err := h.checkout.Checkout(c.Request.Context(), buyer, store, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		case errors.Is(err, service.ErrPaymentDeclined):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	rec.Notify(cart.Notification{
		Title:       "Payment Successful!",
		Description: "Your order has been placed.",
		Variant:     cart.VariantDefault,
	})
	c.JSON(http.StatusCreated, checkoutResponse{Order: toOrderResponse(order), Notices: rec.Notifications()})
}
