package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Source supplies the read-only snapshot the expiry watcher scans.
type Source interface {
	ListActive(ctx context.Context) ([]Order, error)
}

// Reader backs the order list and detail views.
type Reader interface {
	ListOrders(ctx context.Context, f Filter) ([]Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
}

// MemoryStore serves the static mock orders shipped with the app.
type MemoryStore struct {
	mu     sync.RWMutex
	orders []Order
}

func NewMemoryStore(orders []Order) *MemoryStore {
	cp := make([]Order, len(orders))
	copy(cp, orders)
	return &MemoryStore{orders: cp}
}

// LoadFile reads a JSON array of orders.
func LoadFile(path string) (*MemoryStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read orders file: %w", err)
	}
	var list []Order
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode orders file: %w", err)
	}
	seen := make(map[string]struct{}, len(list))
	for i, o := range list {
		if o.ID == "" {
			return nil, fmt.Errorf("order #%d: missing id", i)
		}
		if _, dup := seen[o.ID]; dup {
			return nil, fmt.Errorf("order %s: duplicate id", o.ID)
		}
		seen[o.ID] = struct{}{}
		if !o.Status.Valid() {
			return nil, fmt.Errorf("order %s: %w: %q", o.ID, ErrInvalidStatus, o.Status)
		}
	}
	return NewMemoryStore(list), nil
}

// ListActive returns the non-terminal orders. Expirability is decided by the caller.
func (s *MemoryStore) ListActive(ctx context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !IsTerminal(o.Status) {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListOrders returns matching orders, newest first.
func (s *MemoryStore) ListOrders(ctx context.Context, f Filter) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.match(o) {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}
