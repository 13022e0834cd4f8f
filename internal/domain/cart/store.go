// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrPersist wraps any failure to write the cart. The in-memory cart is left untouched.
	ErrPersist = errors.New("cart could not be saved")
	// ErrInvalidItem is returned when a product without an id is added
	ErrInvalidItem = errors.New("cart item has no product id")
)

// Storage persists serialized carts. Update must apply fn atomically with respect to other
// Update calls on the same key; current is nil when nothing is stored yet.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// SessionKey is the storage key of a shopper session's cart
func SessionKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Store is the cart of one session. Every mutation rewrites the stored cart as its last step.
type Store struct {
	storage Storage
	key     string
	now     func() time.Time

	mu   sync.Mutex
	cart Cart
}

// NewStore creates a store bound to key. Call Load to rehydrate it.
func NewStore(storage Storage, key string) *Store {
	return &Store{
		storage: storage,
		key:     key,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Load rehydrates the cart from storage. A missing or unreadable blob yields an empty cart.
func (s *Store) Load(ctx context.Context) (Cart, error) {
	raw, err := s.storage.Load(ctx, s.key)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = decode(raw)
	return s.cart.clone(), nil
}

// Cart returns a copy of the last known-good cart
func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

// AddItem increments the line for p or appends a new one. added is true for a new line.
func (s *Store) AddItem(ctx context.Context, p Product, quantity int) (Cart, bool, error) {
	if p.ID == "" {
		return s.Cart(), false, ErrInvalidItem
	}
	if quantity < 1 {
		quantity = 1
	}

	var added bool
	c, err := s.mutate(ctx, func(c *Cart) {
		if i := c.index(p.ID); i >= 0 {
			c.Items[i].Quantity += quantity
			added = false
			return
		}
		c.Items = append(c.Items, LineItem{
			ProductID:       p.ID,
			Name:            p.Name,
			Image:           p.Image,
			Price:           p.Price,
			DiscountedPrice: p.DiscountedPrice,
			Quantity:        quantity,
			AddedAt:         s.now(),
		})
		added = true
	})
	if err != nil {
		return c, false, err
	}
	return c, added, nil
}

// RemoveItem deletes the line for productID. Removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) (Cart, error) {
	return s.mutate(ctx, func(c *Cart) {
		if i := c.index(productID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	})
}

// SetQuantity adds delta to the line's quantity, never going below 1
func (s *Store) SetQuantity(ctx context.Context, productID string, delta int) (Cart, error) {
	return s.mutate(ctx, func(c *Cart) {
		i := c.index(productID)
		if i < 0 {
			return
		}
		q := c.Items[i].Quantity + delta
		if q < 1 {
			q = 1
		}
		c.Items[i].Quantity = q
	})
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func(c *Cart) {
		c.Items = nil
	})
	return err
}

// RemoveOrdered takes the ordered quantities out of the cart. A line topped up after the
// snapshot keeps the extra quantity; lines added after it are untouched.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []LineItem) (Cart, error) {
	return s.mutate(ctx, func(c *Cart) {
		for _, line := range ordered {
			i := c.index(line.ProductID)
			if i < 0 {
				continue
			}
			if c.Items[i].Quantity > line.Quantity {
				c.Items[i].Quantity -= line.Quantity
				continue
			}
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	})
}

func (s *Store) mutate(ctx context.Context, apply func(c *Cart)) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next Cart
	err := s.storage.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		next = decode(current)
		apply(&next)
		next.UpdatedAt = s.now()
		return json.Marshal(next)
	})
	if err != nil {
		return s.cart.clone(), fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.cart = next
	return s.cart.clone(), nil
}

func decode(raw []byte) Cart {
	var c Cart
	if len(raw) == 0 {
		return c
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}
	}
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID == "" {
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return c
}
