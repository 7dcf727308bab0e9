// Package cart keeps a visitor's intended purchases. A Store is the
// authoritative in-memory copy of one cart; every mutation writes the whole
// cart back to Storage.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/medishop/internal/model"
)

// MaxQuantity is the most units of one product a cart may hold.
const MaxQuantity = 99

type Store struct {
	storage  Storage
	notifier Notifier
	key      string
	log      *slog.Logger

	mu          sync.Mutex
	items       []model.CartItem
	initialized bool
}

func NewStore(storage Storage, notifier Notifier, key string, log *slog.Logger) *Store {
	if notifier == nil {
		notifier = discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		storage:  storage,
		notifier: notifier,
		key:      key,
		log:      log.With("cart_key", key),
	}
}

// Load hydrates the store from storage. Anything unreadable is treated as
// an empty cart; the store is initialized afterwards in every case.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	defer func() { s.initialized = true }()

	data, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.log.Error("load cart", "error", err)
		return
	}
	if !found {
		return
	}
	items, err := Unmarshal(data)
	if err != nil {
		s.log.Warn("discard unreadable cart", "error", err)
		return
	}
	s.items = normalize(items)
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Store) Add(ctx context.Context, product model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		if s.items[i].Quantity >= MaxQuantity {
			s.notifier.Notify(Notification{
				Title:       "Quantity Limit",
				Description: fmt.Sprintf("You can add at most %d of %s.", MaxQuantity, product.Name),
				Variant:     VariantDestructive,
			})
			return
		}
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, model.CartItem{Product: product, Quantity: 1})
	}
	s.notifier.Notify(Notification{
		Title:       "Item Added",
		Description: fmt.Sprintf("%s added to your cart.", product.Name),
		Variant:     VariantDefault,
	})
	s.persist(ctx)
}

// SetQuantity replaces the quantity of an item. Quantities below 1 remove
// the item and quantities above MaxQuantity are clamped to it. Unknown
// product IDs are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) {
	if quantity < 1 {
		s.Remove(ctx, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = min(quantity, MaxQuantity)
	s.persist(ctx)
}

func (s *Store) Remove(ctx context.Context, productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.notifier.Notify(Notification{
		Title:       "Item Removed",
		Description: fmt.Sprintf("%s removed from your cart.", removed.Name),
		Variant:     VariantDestructive,
	})
	s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.notifier.Notify(Notification{
		Title:       "Cart Cleared",
		Description: "Your shopping cart has been emptied.",
		Variant:     VariantDefault,
	})
	s.persist(ctx)
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) indexOf(productID uuid.UUID) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// normalize enforces one item per product and 1 <= quantity <= MaxQuantity
// on data that came from outside the store.
func normalize(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	seen := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		item.Quantity = min(item.Quantity, MaxQuantity)
		if i, ok := seen[item.ID]; ok {
			out[i].Quantity = min(out[i].Quantity+item.Quantity, MaxQuantity)
			continue
		}
		seen[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// persist must be called with s.mu held. Write failures never undo the
// in-memory change.
func (s *Store) persist(ctx context.Context) {
	data, err := Marshal(s.items)
	if err == nil {
		err = s.storage.Set(ctx, s.key, data)
	}
	if err != nil {
		s.log.Error("save cart", "error", err)
		s.notifier.Notify(Notification{
			Title:       "Storage Error",
			Description: "Could not save your cart. Storage might be full or unavailable.",
			Variant:     VariantDestructive,
		})
	}
}

// Marshal encodes items as a JSON array; an empty cart is "[]".
func Marshal(items []model.CartItem) ([]byte, error) {
	if items == nil {
		items = []model.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}
