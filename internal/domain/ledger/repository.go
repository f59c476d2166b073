// internal/domain/ledger/repository.go
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Repository loads and saves whole item documents. Every save rewrites the
// full document for the item code; there is no incremental update path.
type Repository interface {
	// GetItem returns the item for the code, or ErrItemNotFound
	GetItem(ctx context.Context, itemCode string) (*Item, error)

	// ListItems returns all items in the ledger
	ListItems(ctx context.Context) ([]*Item, error)

	// SaveItem persists the full item document, creating it if absent
	SaveItem(ctx context.Context, item *Item) error
}

// MemoryRepository is an in-memory Repository used by tests and local
// tooling. Items are deep-copied on the way in and out so callers can
// mutate freely without leaking state.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Item
	order []string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*Item),
	}
}

// GetItem returns a copy of the stored item
func (r *MemoryRepository) GetItem(ctx context.Context, itemCode string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemCode]
	if !ok {
		return nil, ErrItemNotFound
	}
	return cloneItem(item)
}

// ListItems returns copies of all stored items in insertion order
func (r *MemoryRepository) ListItems(ctx context.Context) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Item, 0, len(r.order))
	for _, code := range r.order {
		copy, err := cloneItem(r.items[code])
		if err != nil {
			return nil, err
		}
		items = append(items, copy)
	}
	return items, nil
}

// SaveItem stores a copy of the item document
func (r *MemoryRepository) SaveItem(ctx context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copy, err := cloneItem(item)
	if err != nil {
		return err
	}
	if _, ok := r.items[item.ItemCode]; !ok {
		r.order = append(r.order, item.ItemCode)
	}
	r.items[item.ItemCode] = copy
	return nil
}

// cloneItem deep-copies an item through its JSON form, the same shape the
// persistent repository stores.
func cloneItem(item *Item) (*Item, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to clone item %s: %w", item.ItemCode, err)
	}
	var copy Item
	if err := json.Unmarshal(raw, &copy); err != nil {
		return nil, fmt.Errorf("failed to clone item %s: %w", item.ItemCode, err)
	}
	return &copy, nil
}
