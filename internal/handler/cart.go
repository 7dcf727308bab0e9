package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/middleware"
	"github.com/flicky/medishop/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) open(c *gin.Context) (*cart.Store, *cart.Recorder, bool) {
	rec := &cart.Recorder{}
	store, err := h.svc.Open(c.Request.Context(), middleware.GetCartSession(c), rec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return store, rec, true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	store, rec, ok := h.open(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store, rec, middleware.GetCurrency(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, rec, ok := h.open(c)
	if !ok {
		return
	}
	if err := h.svc.AddItem(c.Request.Context(), store, req.ProductID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store, rec, middleware.GetCurrency(c)))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, rec, ok := h.open(c)
	if !ok {
		return
	}
	h.svc.UpdateItem(c.Request.Context(), store, productID, *req.Quantity)
	c.JSON(http.StatusOK, toCartResponse(store, rec, middleware.GetCurrency(c)))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}
	store, rec, ok := h.open(c)
	if !ok {
		return
	}
	h.svc.DeleteItem(c.Request.Context(), store, productID)
	c.JSON(http.StatusOK, toCartResponse(store, rec, middleware.GetCurrency(c)))
}

func (h *CartHandler) Clear(c *gin.Context) {
	store, rec, ok := h.open(c)
	if !ok {
		return
	}
	h.svc.Clear(c.Request.Context(), store)
	c.JSON(http.StatusOK, toCartResponse(store, rec, middleware.GetCurrency(c)))
}

func toCartResponse(store *cart.Store, rec *cart.Recorder, sel *currency.Selector) dto.CartResponse {
	items := store.Items()
	out := make([]dto.CartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.CartItemResponse{
			ProductID:    item.ID,
			Name:         item.Name,
			Category:     item.Category,
			ImageURL:     item.ImageURL,
			ImageHint:    item.ImageHint,
			Price:        item.Price,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal(),
			DisplayTotal: sel.Display(item.LineTotal()),
		})
	}
	total := store.Total()
	notices := []cart.Notification{}
	if rec != nil {
		notices = append(notices, rec.Notifications()...)
	}
	return dto.CartResponse{
		Items:        out,
		Total:        total,
		DisplayTotal: sel.Display(total),
		Currency:     string(sel.Selected()),
		ItemCount:    store.ItemCount(),
		Initialized:  store.Initialized(),
		Notices:      notices,
	}
}
