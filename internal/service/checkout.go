package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/payment"
	"github.com/flicky/medishop/internal/repository"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartNotInitialized = errors.New("cart is not loaded")
	ErrPaymentDeclined    = errors.New("payment processing failed")
)

const paymentMethodCard = "credit card"

// OrderPublisher announces placed orders to downstream consumers.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg model.OrderMessage) error
}

// Buyer is the authenticated identity placing an order.
type Buyer struct {
	ID    uuid.UUID
	Email string
}

type CheckoutService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	publisher OrderPublisher
	log       *slog.Logger
}

func NewCheckoutService(orderRepo repository.OrderRepository, gateway payment.Gateway, publisher OrderPublisher, log *slog.Logger) *CheckoutService {
	return &CheckoutService{orderRepo: orderRepo, gateway: gateway, publisher: publisher, log: log}
}

// Checkout charges the cart's canonical USD total, stores the order
// snapshot and empties the cart. On any error the cart is left untouched.
func (s *CheckoutService) Checkout(ctx context.Context, buyer Buyer, store *cart.Store, req dto.CheckoutRequest) (*model.Order, error) {
	// Stores from CartService.Open are always loaded; this only rejects
	// callers that build a Store themselves and skip Load.
	if !store.Initialized() {
		return nil, ErrCartNotInitialized
	}
	items := store.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	total := store.Total()

	approved, err := s.gateway.Process(ctx, payment.Info{
		Amount:   total,
		Currency: string(currency.USD),
		Method:   paymentMethodCard,
	})
	if err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if !approved {
		return nil, ErrPaymentDeclined
	}

	email := buyer.Email
	if email == "" {
		email = req.Email
	}

	order := &model.Order{
		UserID:     buyer.ID,
		UserEmail:  email,
		Status:     model.OrderStatusPending,
		TotalPrice: total,
		Currency:   string(currency.USD),
		ShippingAddress: model.ShippingAddress{
			FullName: req.FullName,
			Address:  req.Address,
			City:     req.City,
			State:    req.State,
			Zip:      req.Zip,
			Email:    req.Email,
			Phone:    req.Phone,
		},
		Items: snapshotItems(items),
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	log := s.log.With("order_id", order.ID, "user_id", buyer.ID)
	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, toOrderMessage(order)); err != nil {
			log.Error("publish order placed", "error", err)
		}
	}

	store.Clear(ctx)
	log.Info("order placed", "total", order.TotalPrice.String())
	return order, nil
}

func snapshotItems(items []model.CartItem) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, model.OrderItem{
			ProductID:  item.ID,
			Name:       item.Name,
			ImageURL:   item.ImageURL,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: item.LineTotal(),
		})
	}
	return out
}

func toOrderMessage(order *model.Order) model.OrderMessage {
	lines := make([]model.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, model.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.TotalPrice,
		})
	}
	return model.OrderMessage{
		OrderID:   order.ID,
		UserID:    order.UserID,
		UserEmail: order.UserEmail,
		Total:     order.TotalPrice,
		Currency:  order.Currency,
		Items:     lines,
		PlacedAt:  order.CreatedAt,
	}
}
