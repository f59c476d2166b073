// internal/domain/allocation/repository.go
package allocation

import (
	"context"
	"errors"
	"sync"
)

// ErrOrderNotFound is returned when an order id is unknown
var ErrOrderNotFound = errors.New("order not found")

// Repository stores orders. ListOrders must return orders in the order
// they were recorded: the matcher walks allocations in insertion order.
type Repository interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	SaveOrder(ctx context.Context, order *Order) error
}

// MemoryRepository is an in-memory Repository for tests and local tooling
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*Order
	seq    []string
}

// NewMemoryRepository creates an empty in-memory order repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*Order),
	}
}

// GetOrder returns a copy of the stored order
func (r *MemoryRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListOrders returns copies of all orders in insertion order
func (r *MemoryRepository) ListOrders(ctx context.Context) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*Order, 0, len(r.seq))
	for _, id := range r.seq {
		orders = append(orders, cloneOrder(r.orders[id]))
	}
	return orders, nil
}

// SaveOrder stores a copy of the order
func (r *MemoryRepository) SaveOrder(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderID]; !ok {
		r.seq = append(r.seq, order.OrderID)
	}
	r.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func cloneOrder(order *Order) *Order {
	copy := *order
	copy.Lines = make([]OrderLine, len(order.Lines))
	for i := range order.Lines {
		copy.Lines[i] = order.Lines[i]
	}
	return &copy
}
