// Package cart wraps the cart endpoints and keeps a local mirror of the
// cart with explicit sync status, so the optimistic-update/rollback path is
// observable instead of timing-dependent.
package cart

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Item is a cart line. Price is the denormalized line total
// (Quantity * UnitPrice) as the backend reports it.
type Item struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Cart mirrors the backend cart document. Total is authoritative only when
// it came from a fetch; after a local mutation it is the client-side
// recomputation until the next GetCart.
type Cart struct {
	ID    string  `json:"id"`
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// SyncStatus tags the local cart state relative to the backend.
type SyncStatus string

const (
	// StatusSynced means the local cart matches the last server response.
	StatusSynced SyncStatus = "synced"
	// StatusPending means an optimistic mutation is in flight.
	StatusPending SyncStatus = "pending"
	// StatusRollback means the last optimistic mutation failed and the
	// pre-mutation snapshot was restored.
	StatusRollback SyncStatus = "rollback"
)

// Service calls the /cart endpoints.
type Service struct {
	api *httputil.Client

	mu       sync.Mutex
	local    *Cart
	status   SyncStatus
	snapshot *Cart
}

func New(api *httputil.Client) *Service {
	return &Service{api: api, status: StatusSynced}
}

// Local returns a copy of the local cart mirror and its sync status. The
// cart is nil before the first fetch.
func (s *Service) Local() (*Cart, SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.local), s.status
}

// GetCart fetches the cart. The server-reported total overwrites any
// client-side recomputation.
func (s *Service) GetCart(ctx context.Context) (*Cart, error) {
	var fetched Cart
	if err := s.api.Get(ctx, "/cart", &fetched); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.local = cloneCart(&fetched)
	s.status = StatusSynced
	s.snapshot = nil
	s.mu.Unlock()
	return &fetched, nil
}

// AddToCart adds quantity units of a product. The returned cart is the
// server response with the line totals recomputed locally.
func (s *Service) AddToCart(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, fmt.Errorf("cart: product id is required")
	}
	if quantity < 1 {
		return nil, fmt.Errorf("cart: quantity must be at least 1, got %d", quantity)
	}

	body := map[string]any{"productId": productID, "quantity": quantity}
	var updated Cart
	if err := s.api.Post(ctx, "/cart", body, &updated); err != nil {
		return nil, err
	}
	recomputeTotal(&updated)

	s.mu.Lock()
	s.local = cloneCart(&updated)
	s.status = StatusSynced
	s.snapshot = nil
	s.mu.Unlock()
	return &updated, nil
}

// UpdateItemQuantity sets a line's quantity optimistically: the local
// mirror changes before the request goes out and is rolled back when the
// request fails. Quantities below 1 remove the line instead; no update
// request with a non-positive quantity is ever issued.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*Cart, error) {
	if itemID == "" {
		return nil, fmt.Errorf("cart: item id is required")
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, itemID)
	}

	applied, err := s.applyOptimistic(func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
		return fmt.Errorf("cart: item %s not in local cart", itemID)
	})
	if err != nil {
		return nil, err
	}

	body := map[string]any{"quantity": quantity}
	if err := s.api.Put(ctx, "/cart/items/"+url.PathEscape(itemID), body, nil); err != nil {
		s.rollback()
		return nil, err
	}
	s.markSynced()
	return applied, nil
}

// RemoveItem deletes a line optimistically.
func (s *Service) RemoveItem(ctx context.Context, itemID string) (*Cart, error) {
	if itemID == "" {
		return nil, fmt.Errorf("cart: item id is required")
	}

	applied, err := s.applyOptimistic(func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("cart: item %s not in local cart", itemID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.api.Delete(ctx, "/cart/items/"+url.PathEscape(itemID), nil); err != nil {
		s.rollback()
		return nil, err
	}
	s.markSynced()
	return applied, nil
}

// Clear empties the cart optimistically.
func (s *Service) Clear(ctx context.Context) error {
	if _, err := s.applyOptimistic(func(c *Cart) error {
		c.Items = nil
		return nil
	}); err != nil {
		return err
	}

	if err := s.api.Delete(ctx, "/cart", nil); err != nil {
		s.rollback()
		return err
	}
	s.markSynced()
	return nil
}

// applyOptimistic snapshots the local cart, applies mutate, recomputes the
// provisional total and marks the state pending.
func (s *Service) applyOptimistic(mutate func(*Cart) error) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.local == nil {
		return nil, fmt.Errorf("cart: no local cart, fetch it first")
	}

	snapshot := cloneCart(s.local)
	next := cloneCart(s.local)
	if err := mutate(next); err != nil {
		return nil, err
	}
	recomputeTotal(next)

	s.snapshot = snapshot
	s.local = next
	s.status = StatusPending
	return cloneCart(next), nil
}

func (s *Service) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		s.local = s.snapshot
		s.snapshot = nil
	}
	s.status = StatusRollback
}

func (s *Service) markSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.status = StatusSynced
}

// recomputeTotal rewrites each line total as quantity * unit price and the
// cart total as their sum. The server total replaces it on the next fetch.
func recomputeTotal(c *Cart) {
	total := 0.0
	for i := range c.Items {
		c.Items[i].Price = float64(c.Items[i].Quantity) * c.Items[i].UnitPrice
		total += c.Items[i].Price
	}
	c.Total = total
}

func cloneCart(c *Cart) *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}
