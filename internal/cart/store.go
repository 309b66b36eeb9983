package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/pricing"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/logger"
	"github.com/threadlane/storefront-go/pkg/types"
)

// Line is one purchasable entry in the cart. Two lines are the same line iff
// product ID and size both match; color is deliberately not part of the
// identity (see TestAddMergesAcrossColors).
type Line struct {
	Product  types.ProductSnapshot `json:"product"`
	Quantity int                   `json:"quantity"`
	Size     string                `json:"size"`
	Color    string                `json:"color,omitempty"`
}

// Store holds the purchasable working set for this client. It is independent
// of identity: a visitor builds a cart before logging in. Every mutation
// synchronously re-persists the whole line collection.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage localstore.Store
	logg    *logger.Logger
	subs    []func()
}

// NewStore builds a cart store over the given local storage.
func NewStore(storage localstore.Store, logg *logger.Logger) *Store {
	return &Store{storage: storage, logg: logg}
}

// Restore loads the persisted cart. Absence of data is the normal empty-cart
// result, not a failure; a corrupt payload is logged and treated as empty.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.storage.Get(localstore.KeyCart)
	if err != nil || !ok {
		if err != nil && s.logg != nil {
			s.logg.Error(context.Background(), "read persisted cart", err)
		}
		return
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		if s.logg != nil {
			s.logg.Warn(context.Background(), "discarding unreadable persisted cart")
		}
		return
	}
	s.lines = lines
}

// Add puts quantity units of product/size into the cart. When a line with the
// same product and size exists its quantity is incremented and its color kept;
// otherwise a new line is appended. Non-positive quantities are ignored.
func (s *Store) Add(product types.ProductSnapshot, size string, quantity int, color string) {
	if quantity <= 0 {
		return
	}

	s.mu.Lock()
	if idx := s.find(product.ID, size); idx >= 0 {
		s.lines[idx].Quantity += quantity
	} else {
		s.lines = append(s.lines, Line{Product: product, Quantity: quantity, Size: size, Color: color})
	}
	s.persist()
	s.mu.Unlock()
	s.notify()
}

// Remove drops the line matching product and size. Absent lines are a no-op.
func (s *Store) Remove(productID, size string) {
	s.mu.Lock()
	idx := s.find(productID, size)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.persist()
	s.mu.Unlock()
	s.notify()
}

// SetQuantity replaces the matching line's quantity outright. A quantity at
// or below zero removes the line instead of keeping it at zero. Absent lines
// are a no-op.
func (s *Store) SetQuantity(productID, size string, quantity int) {
	if quantity <= 0 {
		s.Remove(productID, size)
		return
	}

	s.mu.Lock()
	idx := s.find(productID, size)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.lines[idx].Quantity = quantity
	s.persist()
	s.mu.Unlock()
	s.notify()
}

// Clear empties the cart. Called after a successful checkout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.persist()
	s.mu.Unlock()
	s.notify()
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Subtotal returns the effective-price sum across all lines.
func (s *Store) Subtotal() decimal.Decimal {
	return s.Quote().Subtotal
}

// Quote derives the full pricing snapshot for the current contents.
func (s *Store) Quote() pricing.Snapshot {
	s.mu.Lock()
	priceables := make([]pricing.Priceable, len(s.lines))
	for i, line := range s.lines {
		priceables[i] = pricing.Priceable{Product: line.Product, Quantity: line.Quantity}
	}
	s.mu.Unlock()
	return pricing.Quote(priceables)
}

// ItemCount returns the sum of quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Subscribe registers a callback invoked after every cart change.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) find(productID, size string) int {
	for i, line := range s.lines {
		if line.Product.ID == productID && line.Size == size {
			return i
		}
	}
	return -1
}

// persist writes the whole collection; callers hold the lock.
func (s *Store) persist() {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(context.Background(), "encode cart", err)
		}
		return
	}
	if err := s.storage.Set(localstore.KeyCart, string(raw)); err != nil && s.logg != nil {
		s.logg.Error(context.Background(), "persist cart", err)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
