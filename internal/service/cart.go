package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/model"
)

var ErrInvalidCartSession = errors.New("cart session is required")

// ProductLookup resolves a catalog entry for the cart.
type ProductLookup interface {
	Product(ctx context.Context, id uuid.UUID) (model.Product, error)
}

type CartService struct {
	storage  cart.Storage
	products ProductLookup
	log      *slog.Logger
}

func NewCartService(storage cart.Storage, products ProductLookup, log *slog.Logger) *CartService {
	return &CartService{storage: storage, products: products, log: log}
}

// Open returns the loaded cart of a session. Notices raised by later
// mutations go to n.
func (s *CartService) Open(ctx context.Context, session string, n cart.Notifier) (*cart.Store, error) {
	if session == "" {
		return nil, ErrInvalidCartSession
	}
	store := cart.NewStore(s.storage, n, cart.StorageKey(session), s.log)
	store.Load(ctx)
	return store, nil
}

func (s *CartService) AddItem(ctx context.Context, store *cart.Store, productID uuid.UUID) error {
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return err
	}
	store.Add(ctx, product)
	return nil
}

// UpdateItem and DeleteItem are no-ops for products not in the cart.
func (s *CartService) UpdateItem(ctx context.Context, store *cart.Store, productID uuid.UUID, quantity int) {
	store.SetQuantity(ctx, productID, quantity)
}

func (s *CartService) DeleteItem(ctx context.Context, store *cart.Store, productID uuid.UUID) {
	store.Remove(ctx, productID)
}

func (s *CartService) Clear(ctx context.Context, store *cart.Store) {
	store.Clear(ctx)
}
